package commands

import (
	"context"
	"runtime/debug"
	"strings"

	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"

	"github.com/keshon/dispatch/internal/command"
	"github.com/keshon/dispatch/internal/reply"
)

func About() *command.Command {
	return &command.Command{
		Name:        "about",
		Description: "Shows info about the bot.",
		Run: func(_ context.Context, c *command.Context) error {
			info, _ := debug.ReadBuildInfo()
			return c.Embed(aboutEmbed(info))
		},
	}
}

func aboutEmbed(info *debug.BuildInfo) *discordgo.MessageEmbed {
	version, goVer := "unknown", "unknown"
	if info != nil {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			version = v
		}
		goVer = strings.TrimPrefix(info.GoVersion, "go")
	}

	return embed.NewEmbed().
		SetColor(reply.EmbedColor).
		SetDescription("ℹ️ About\n\n**" + AppName + "** " + AppDescription).
		AddField("Repository", Repository).
		AddField("Release", version+" (Go "+goVer+")").
		MessageEmbed
}
