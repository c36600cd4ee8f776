package gateway

import (
	"fmt"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier delivers pipeline notifications to a fixed chat.
type TelegramNotifier struct {
	Bot    *tgbotapi.BotAPI
	ChatID int64
}

func NewTelegramNotifier(token string, chatID string) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	return &TelegramNotifier{
		Bot:    bot,
		ChatID: id,
	}, nil
}

func (tg *TelegramNotifier) Send(text string) error {
	msg := tgbotapi.NewMessage(tg.ChatID, text)
	_, err := tg.Bot.Send(msg)
	return err
}

func (tg *TelegramNotifier) Stop() error {
	// The bot API client is stateless between sends; nothing to tear down.
	return nil
}
