package bot

// The pinned telegram-bot-api release predates WebApp buttons. ReplyMarkup
// is marshalled as plain JSON, so these mirror the Bot API objects.

type webAppInfo struct {
	URL string `json:"url"`
}

type keyboardButton struct {
	Text   string      `json:"text"`
	WebApp *webAppInfo `json:"web_app,omitempty"`
}

type replyKeyboardMarkup struct {
	Keyboard       [][]keyboardButton `json:"keyboard"`
	ResizeKeyboard bool               `json:"resize_keyboard"`
}

func webAppKeyboard(text, url string) replyKeyboardMarkup {
	return replyKeyboardMarkup{
		Keyboard:       [][]keyboardButton{{{Text: text, WebApp: &webAppInfo{URL: url}}}},
		ResizeKeyboard: true,
	}
}
