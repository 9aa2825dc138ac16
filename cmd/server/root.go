package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	flagLogLevel  string
	flagLogFormat string
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F87"))
)

var rootCmd = &cobra.Command{
	Use:   "huddle",
	Short: "WebRTC signaling server for small video rooms",
	Long: `huddle relays WebRTC offers, answers and ICE candidates between the
members of a room over a websocket, and carries room and group chat.

Examples:
  huddle serve --addr :3000
  huddle users add --username alice --name Alice --password secret
  huddle rooms --server http://localhost:3000`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format (console, json)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(roomsCmd)
}
