package bot

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/tbrandt/grouppot/internal/commands"
	"github.com/tbrandt/grouppot/internal/db"
	"github.com/tbrandt/grouppot/internal/tracker"
)

type Bot struct {
	session  *discordgo.Session
	db       *db.DB
	tracker  *tracker.Service
	watchdog *watchdog
}

func New(token string, database *db.DB, svc *tracker.Service) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	bot := &Bot{
		session: session,
		db:      database,
		tracker: svc,
	}
	bot.watchdog = newWatchdog(session, database)

	// Register event handlers
	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onGuildCreate)
	session.AddHandler(bot.onInteractionCreate)

	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	return bot, nil
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	b.watchdog.start()
	log.Println("Discord bot is running")
	return nil
}

func (b *Bot) Stop() error {
	b.watchdog.stop()
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("%s is connected!", event.User.Username)

	for _, guild := range event.Guilds {
		if err := b.registerGuildCommands(guild.ID); err != nil {
			log.Printf("Failed to register commands for guild %s: %v", guild.ID, err)
		}
	}
}

func (b *Bot) onGuildCreate(s *discordgo.Session, event *discordgo.GuildCreate) {
	log.Printf("Guild available/joined: %s (id=%s), ensuring commands", event.Name, event.ID)
	if err := b.registerGuildCommands(event.ID); err != nil {
		log.Printf("Failed to register commands for guild %s: %v", event.ID, err)
	}
}

func (b *Bot) registerGuildCommands(guildID string) error {
	for _, cmd := range commands.GetCommands() {
		if _, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, guildID, cmd); err != nil {
			return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
		}
	}
	return nil
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if i.ApplicationCommandData().Name == "poker" {
		commands.HandlePoker(s, i, b.db, b.tracker)
	}
}
