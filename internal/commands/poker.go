package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/tbrandt/grouppot/internal/db"
	"github.com/tbrandt/grouppot/internal/settle"
	"github.com/tbrandt/grouppot/internal/tracker"
)

// HandlePoker dispatches /poker subcommands against the session linked to
// the interaction's channel.
func HandlePoker(s *discordgo.Session, i *discordgo.InteractionCreate, database *db.DB, svc *tracker.Service) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		respondText(s, i, "No subcommand given.")
		return
	}

	ctx := context.Background()
	sub := data.Options[0]

	if sub.Name == "start" {
		handleStart(ctx, s, i, database, sub)
		return
	}

	session, err := database.ChannelSession(ctx, i.ChannelID)
	if err != nil {
		respondText(s, i, "Failed to look up the channel session.")
		return
	}
	if session == nil {
		respondText(s, i, "No session in this channel. Run `/poker start` first.")
		return
	}

	switch sub.Name {
	case "stop":
		if err := database.UnlinkChannel(ctx, i.ChannelID); err != nil {
			respondText(s, i, "Failed to detach the session.")
			return
		}
		respondText(s, i, fmt.Sprintf("Session \"%s\" detached from this channel.", session.Name))

	case "player":
		name := getStringOption(sub.Options, "name")
		buyIn := getNumberOption(sub.Options, "buyin")
		if name == nil || buyIn == nil {
			respondText(s, i, "Both name and buyin are required.")
			return
		}
		if *buyIn <= 0 {
			respondText(s, i, "Buy-in must be positive.")
			return
		}
		existing, err := database.PlayerByName(ctx, session.ID, *name)
		if err != nil {
			respondText(s, i, "Failed to check the player.")
			return
		}
		if existing != nil {
			respondText(s, i, fmt.Sprintf("%s is already in the session.", *name))
			return
		}
		if _, err := database.AddPlayer(ctx, session.ID, *name, *buyIn); err != nil {
			respondText(s, i, "Failed to add the player.")
			return
		}
		respondText(s, i, fmt.Sprintf("Added %s with a %.2f buy-in.", *name, *buyIn))

	case "buyin":
		name := getStringOption(sub.Options, "name")
		amount := getNumberOption(sub.Options, "amount")
		if name == nil || amount == nil {
			respondText(s, i, "Both name and amount are required.")
			return
		}
		if *amount <= 0 {
			respondText(s, i, "Buy-in must be positive.")
			return
		}
		player := resolvePlayer(ctx, s, i, database, session.ID, *name)
		if player == nil {
			return
		}
		if err := database.AddBuyIn(ctx, player.ID, *amount); err != nil {
			respondText(s, i, "Failed to record the buy-in.")
			return
		}
		respondText(s, i, fmt.Sprintf("Recorded a %.2f buy-in for %s.", *amount, player.Name))

	case "end":
		name := getStringOption(sub.Options, "name")
		if name == nil {
			respondText(s, i, "Player name is required.")
			return
		}
		player := resolvePlayer(ctx, s, i, database, session.ID, *name)
		if player == nil {
			return
		}
		amount := getNumberOption(sub.Options, "amount")
		if amount != nil && *amount < 0 {
			respondText(s, i, "End amount must not be negative.")
			return
		}
		if err := database.SetEndAmount(ctx, player.ID, amount); err != nil {
			respondText(s, i, "Failed to update the end amount.")
			return
		}
		if amount == nil {
			respondText(s, i, fmt.Sprintf("Cleared %s's end amount.", player.Name))
			return
		}
		respondText(s, i, fmt.Sprintf("%s ends with %.2f.", player.Name, *amount))

	case "catering":
		amount := getNumberOption(sub.Options, "amount")
		if amount == nil {
			respondText(s, i, "Amount is required.")
			return
		}
		if *amount < 0 {
			respondText(s, i, "Catering amount must not be negative.")
			return
		}
		policy := session.HostPolicy
		if opt := getStringOption(sub.Options, "policy"); opt != nil {
			parsed, ok := settle.ParseHostPolicy(*opt)
			if !ok {
				respondText(s, i, "Unknown host policy.")
				return
			}
			policy = string(parsed)
		}
		if err := database.UpdateSettings(ctx, session.ID, *amount, policy, session.HostID, session.AccountantID); err != nil {
			respondText(s, i, "Failed to update catering settings.")
			return
		}
		respondText(s, i, fmt.Sprintf("Catering set to %.2f.", *amount))

	case "host":
		hostID := ""
		msg := "Host cleared."
		if name := getStringOption(sub.Options, "name"); name != nil {
			player := resolvePlayer(ctx, s, i, database, session.ID, *name)
			if player == nil {
				return
			}
			hostID = player.ID
			msg = fmt.Sprintf("%s is now the host.", player.Name)
		}
		if err := database.UpdateSettings(ctx, session.ID, session.CateringAmount, session.HostPolicy, hostID, session.AccountantID); err != nil {
			respondText(s, i, "Failed to update the host.")
			return
		}
		respondText(s, i, msg)

	case "accountant":
		name := getStringOption(sub.Options, "name")
		if name == nil {
			respondText(s, i, "Player name is required.")
			return
		}
		player := resolvePlayer(ctx, s, i, database, session.ID, *name)
		if player == nil {
			return
		}
		if err := database.UpdateSettings(ctx, session.ID, session.CateringAmount, session.HostPolicy, session.HostID, player.ID); err != nil {
			respondText(s, i, "Failed to update the accountant.")
			return
		}
		respondText(s, i, fmt.Sprintf("%s is now the accountant.", player.Name))

	case "status":
		players, err := database.SessionPlayers(ctx, session.ID)
		if err != nil {
			respondText(s, i, "Failed to load players.")
			return
		}
		respondText(s, i, formatStatus(session, players))

	case "settle":
		result, err := svc.Settlement(ctx, session.ID)
		if err != nil {
			var verr *settle.ValidationError
			if errors.As(err, &verr) {
				respondText(s, i, verr.Error())
				return
			}
			respondText(s, i, "Failed to compute the settlement.")
			return
		}
		respondText(s, i, formatSettlement(result))

	default:
		respondText(s, i, "Unknown subcommand.")
	}
}

func handleStart(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, database *db.DB, sub *discordgo.ApplicationCommandInteractionDataOption) {
	name := getStringOption(sub.Options, "name")
	if name == nil {
		respondText(s, i, "Session name is required.")
		return
	}

	// Sessions created from Discord live in a per-guild group owned by a
	// synthetic guild account.
	owner := "discord:" + i.GuildID
	if err := database.UpsertUser(ctx, owner, owner+"@discord.invalid", "Discord guild "+i.GuildID); err != nil {
		respondText(s, i, "Failed to set up the guild account.")
		return
	}
	group, err := database.FirstGroupByOwner(ctx, owner)
	if err != nil {
		respondText(s, i, "Failed to look up the guild group.")
		return
	}
	if group == nil {
		group, err = database.CreateGroup(ctx, owner, "Discord "+i.GuildID)
		if err != nil {
			respondText(s, i, "Failed to create the guild group.")
			return
		}
	}

	session, err := database.CreateSession(ctx, group.ID, *name)
	if err != nil {
		respondText(s, i, "Failed to create the session.")
		return
	}
	if err := database.LinkChannel(ctx, i.ChannelID, i.GuildID, session.ID); err != nil {
		respondText(s, i, "Failed to link the session to this channel.")
		return
	}
	respondText(s, i, fmt.Sprintf("Started session \"%s\" in this channel.", session.Name))
}

// resolvePlayer looks a player up by name and reports failure to the
// channel. Returns nil when the caller should stop.
func resolvePlayer(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, database *db.DB, sessionID, name string) *db.Player {
	player, err := database.PlayerByName(ctx, sessionID, name)
	if err != nil {
		respondText(s, i, "Failed to look up the player.")
		return nil
	}
	if player == nil {
		respondText(s, i, fmt.Sprintf("No player named %s in this session.", name))
		return nil
	}
	return player
}
