package bot

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chancov/WebAppMiningGameTG/internal/logger"
	"github.com/chancov/WebAppMiningGameTG/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const openButtonText = "Open the mining app"

// api is the slice of *tgbotapi.BotAPI the bot uses.
type api interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUserProfilePhotos(config tgbotapi.UserProfilePhotosConfig) (tgbotapi.UserProfilePhotos, error)
	GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error)
}

// Registrar creates accounts on first contact.
type Registrar interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.RegisterResult, error)
}

// Bot answers /start: it registers the sender (crediting the inviter when
// the start payload carries a referral code) and replies with a keyboard
// button that opens the WebApp.
type Bot struct {
	api       api
	accounts  Registrar
	webAppURL string
	stopCh    chan struct{}
	wg        sync.WaitGroup
	log       *slog.Logger
}

func New(token, webAppURL string, accounts Registrar) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	b := newBot(botAPI, webAppURL, accounts)
	b.log.Info("bot authorized", "username", botAPI.Self.UserName)
	return b, nil
}

func newBot(a api, webAppURL string, accounts Registrar) *Bot {
	return &Bot{
		api:       a,
		accounts:  accounts,
		webAppURL: webAppURL,
		stopCh:    make(chan struct{}),
		log:       logger.With("component", "bot"),
	}
}

// Start runs the update loop until Stop is called.
func (b *Bot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() || update.Message.From == nil {
				continue
			}

			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleCommand(msg)
			}(update.Message)
		}
	}
}

// Stop gracefully stops the bot
func (b *Bot) Stop() {
	b.log.Info("stopping bot...")
	close(b.stopCh)
	b.api.StopReceivingUpdates()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("bot shutdown timeout, some handlers may not have completed")
	}
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(msg)
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	user := msg.From
	photo := b.avatarRef(user.ID)

	res, err := b.accounts.Register(ctx, service.RegisterInput{
		Identity:     strconv.FormatInt(user.ID, 10),
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		AvatarRef:    photo,
		ReferralCode: referralCode(msg.CommandArguments()),
	})
	if err != nil {
		b.log.Error("register from /start failed", "telegram_id", user.ID, "error", err)
	} else {
		b.log.Info("start", "telegram_id", user.ID, "was_new", res.WasNew, "was_bonus", res.WasBonus)
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, "Tap the button to open the app:")
	reply.ReplyMarkup = webAppKeyboard(openButtonText, b.launchURL(user, photo))
	if _, err := b.api.Send(reply); err != nil {
		b.log.Error("failed to send start reply", "chat_id", msg.Chat.ID, "error", err)
	}
}

// avatarRef returns the file path of the user's newest profile photo,
// falling back to its file id, or "" when there is none.
func (b *Bot) avatarRef(userID int64) string {
	photos, err := b.api.GetUserProfilePhotos(tgbotapi.UserProfilePhotosConfig{UserID: userID, Limit: 1})
	if err != nil {
		b.log.Debug("profile photos unavailable", "telegram_id", userID, "error", err)
		return ""
	}
	if photos.TotalCount == 0 || len(photos.Photos) == 0 || len(photos.Photos[0]) == 0 {
		return ""
	}

	fileID := photos.Photos[0][0].FileID
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil || file.FilePath == "" {
		return fileID
	}
	return file.FilePath
}

func (b *Bot) launchURL(user *tgbotapi.User, photo string) string {
	q := url.Values{}
	q.Set("user_id", strconv.FormatInt(user.ID, 10))
	q.Set("first_name", user.FirstName)
	q.Set("last_name", user.LastName)
	q.Set("photo_url", photo)

	sep := "?"
	if strings.Contains(b.webAppURL, "?") {
		sep = "&"
	}
	return b.webAppURL + sep + q.Encode()
}

// referralCode accepts both "/start <code>" and "/start ref_<code>".
func referralCode(args string) string {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimPrefix(fields[0], "ref_")
}
