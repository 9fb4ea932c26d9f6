package commands

import (
	"github.com/bwmarrin/discordgo"
)

func respondText(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
}

func getStringOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) *string {
	for _, opt := range opts {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			v := opt.StringValue()
			return &v
		}
	}
	return nil
}

func getNumberOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) *float64 {
	for _, opt := range opts {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionNumber {
			v := opt.FloatValue()
			return &v
		}
	}
	return nil
}
