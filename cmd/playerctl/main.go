// Package main provides the player control CLI entry point.
package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	"github.com/osa030/skystream/internal/api/httpapi"
	"github.com/osa030/skystream/internal/app/playback"
)

var (
	app    = kingpin.New("skystream-ctl", "SkyStream player control client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Admin token (or set ADMIN_TOKEN env)").Envar("ADMIN_TOKEN").String()

	statusCmd   = app.Command("status", "Show the session status")
	playCmd     = app.Command("play", "Start or resume playback")
	pauseCmd    = app.Command("pause", "Pause playback")
	stopCmd     = app.Command("stop", "Stop playback")
	retryCmd    = app.Command("retry", "Retry the failed item")
	nextCmd     = app.Command("next", "Move to the next item").Alias("skip")
	previousCmd = app.Command("previous", "Move to the previous item").Alias("prev")

	seekCmd      = app.Command("seek", "Seek to a position")
	seekPosition = seekCmd.Arg("position", "Position (e.g. 1m30s or 90)").Required().String()

	speedCmd    = app.Command("speed", "Set the playback speed")
	speedFactor = speedCmd.Arg("factor", "Speed factor").Required().String()

	qualityCmd  = app.Command("quality", "Set the quality mode")
	qualityMode = qualityCmd.Arg("mode", "auto, min, max, max:WxH or WxH").Required().String()

	watchCmd = app.Command("watch", "Stream session snapshots until interrupted")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Read-only commands work without a token.
	if *token == "" && command != statusCmd.FullCommand() && command != watchCmd.FullCommand() {
		fmt.Println("Error: admin token is required (use --token or ADMIN_TOKEN env)")
		os.Exit(1)
	}

	client := httpapi.NewClient(nil, *server, *token)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case statusCmd.FullCommand():
		snap, err := client.Snapshot(ctx)
		exitOnError(err)
		printStatus(snap)
	case playCmd.FullCommand():
		intent(ctx, client, "play", nil, "Playback started")
	case pauseCmd.FullCommand():
		intent(ctx, client, "pause", nil, "Playback paused")
	case stopCmd.FullCommand():
		intent(ctx, client, "stop", nil, "Playback stopped")
	case retryCmd.FullCommand():
		intent(ctx, client, "retry", nil, "Retrying")
	case nextCmd.FullCommand():
		move(ctx, client, "next")
	case previousCmd.FullCommand():
		move(ctx, client, "previous")
	case seekCmd.FullCommand():
		intent(ctx, client, "seek", url.Values{"position": {*seekPosition}}, "Seeked")
	case speedCmd.FullCommand():
		intent(ctx, client, "speed", url.Values{"factor": {*speedFactor}}, "Speed set")
	case qualityCmd.FullCommand():
		intent(ctx, client, "quality", url.Values{"mode": {*qualityMode}}, "Quality set")
	case watchCmd.FullCommand():
		err := client.Watch(ctx, func(snap playback.Snapshot) {
			fmt.Printf("[%d] %s %s %s/%s\n", snap.Seq, snap.Session.ItemID, snap.Session.State,
				snap.Session.Position, snap.Session.Duration)
		})
		exitOnError(err)
	}
}

func intent(ctx context.Context, client *httpapi.Client, name string, params url.Values, done string) {
	snap, err := client.Intent(ctx, name, params)
	exitOnError(err)
	fmt.Printf("%s (state: %s)\n", done, snap.Session.State)
}

func move(ctx context.Context, client *httpapi.Client, name string) {
	resp, err := client.Move(ctx, name, nil)
	exitOnError(err)
	if !resp.Moved {
		fmt.Println("No item in that direction")
		return
	}
	fmt.Printf("Now at %s\n", resp.Snapshot.Session.ItemID)
}

func printStatus(s playback.Snapshot) {
	fmt.Println("\n=== CURRENT SESSION STATUS ===")
	fmt.Printf("Session: %s (seq %d)\n", s.SessionID, s.Seq)
	fmt.Printf("State: %s\n", s.Session.State)

	if s.Session.ItemID != "" {
		fmt.Printf("\nItem: %s (%d/%d)\n", s.Session.ItemID, s.Playlist.Index+1, len(s.Playlist.ItemIDs))
		fmt.Printf("  Position: %s / %s\n", s.Session.Position, s.Session.Duration)
		fmt.Printf("  Speed: %.2fx\n", s.Session.Speed)
		if s.Session.QualityAuto {
			fmt.Println("  Quality: auto")
		} else {
			fmt.Printf("  Quality: %s\n", s.Session.Quality)
		}
		fmt.Printf("  Audio tracks: %d (selected %d)\n", len(s.AudioTracks), s.Session.SelectedAudio)
		if s.Session.SubtitlesEnabled {
			fmt.Printf("  Subtitles: track %d\n", s.Session.SelectedSubtitle)
		} else {
			fmt.Println("  Subtitles: off")
		}
	} else {
		fmt.Println("\nNo item loaded")
	}

	if s.Session.Error != nil {
		fmt.Printf("\nError: %s: %s\n", s.Session.Error.Kind, s.Session.Error.Message)
	}

	fmt.Printf("\nVolume: %.0f%%  Brightness: %.0f%%\n", s.Volume*100, s.Brightness*100)
	if s.PermissionRequired {
		fmt.Println("Brightness change needs write-settings permission")
	}
	if s.Wake.KeepAwake {
		if s.Wake.HasDeadline() {
			fmt.Printf("Screen kept awake until %s\n", s.Wake.Deadline.Format("15:04:05"))
		} else {
			fmt.Println("Screen kept awake")
		}
	}
	fmt.Println()
}

func exitOnError(err error) {
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
