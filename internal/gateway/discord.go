package gateway

import (
	"github.com/bwmarrin/discordgo"
)

// DiscordNotifier delivers pipeline notifications to a fixed channel.
type DiscordNotifier struct {
	Session   *discordgo.Session
	ChannelID string
}

func NewDiscordNotifier(token string, channelID string) (*DiscordNotifier, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	if err := session.Open(); err != nil {
		return nil, err
	}
	return &DiscordNotifier{
		Session:   session,
		ChannelID: channelID,
	}, nil
}

func (d *DiscordNotifier) Send(text string) error {
	_, err := d.Session.ChannelMessageSend(d.ChannelID, text)
	return err
}

func (d *DiscordNotifier) Stop() error {
	return d.Session.Close()
}
