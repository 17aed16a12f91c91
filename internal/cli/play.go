package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AlessandroGasperini/pinky/internal/factory"
	"github.com/AlessandroGasperini/pinky/internal/model"
	"github.com/AlessandroGasperini/pinky/internal/nav"
	"github.com/AlessandroGasperini/pinky/internal/store/rest"
)

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Run an interactive game session",
		Long: `Start an interactive client session against a server.

Commands once running:
  create <name> [avatar] [rounds]   Create a room and become the host
  join <code> <name> [avatar]       Join a room by its 3-digit code
  start                             Start the round (host only)
  categories                        List selectable categories
  select <category-id>              Pick the round's category (chooser only)
  answer <correct|wrong> <text>     Submit an answer to the question
  vote <player-id>                  Vote for the suspected imposter
  players                           Show the room's players
  room                              Show the room row
  scores                            Show the score totals
  leave                             Leave the room
  quit                              Exit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay()
		},
	}
}

// playSession drives one interactive client over stdin
type playSession struct {
	app *factory.App
}

// Navigate renders each screen as it becomes visible and hands it to
// the guard manager, mirroring what the UI shell does
func (p *playSession) Navigate(screen nav.Screen) {
	p.render(screen)
	p.app.Guards.Show(screen)
}

func runPlay() error {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	session := &playSession{}
	app, err := factory.New(factory.Config{
		Logger:    logger,
		StoreType: factory.StoreTypeREST,
		RESTConfig: &rest.Config{
			BaseURL: strings.TrimSuffix(cfg.ServerURL, "/"),
		},
		Navigator: session,
	})
	if err != nil {
		return err
	}
	session.app = app
	app.Guards.Show(nav.ScreenEntry)

	fmt.Printf("Connected to %s. Type 'create' or 'join' to begin, 'quit' to exit.\n", cfg.ServerURL)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		if err := session.dispatch(context.Background(), fields); err != nil {
			out.PrintError(err)
		}
	}
}

func (p *playSession) dispatch(ctx context.Context, fields []string) error {
	app := p.app
	switch fields[0] {
	case "create":
		if len(fields) < 2 {
			return fmt.Errorf("usage: create <name> [avatar] [rounds]")
		}
		avatar := "🙂"
		if len(fields) >= 3 {
			avatar = fields[2]
		}
		rounds := 5
		if len(fields) >= 4 {
			n, err := strconv.Atoi(fields[3])
			if err != nil || n < 1 {
				return fmt.Errorf("rounds must be a positive integer")
			}
			rounds = n
		}
		code, err := app.Session.CreateRoom(ctx, rounds, fields[1], avatar)
		if err != nil {
			return err
		}
		out.PrintMessage(fmt.Sprintf("Room created. Share code %s", code))
		return nil

	case "join":
		if len(fields) < 3 {
			return fmt.Errorf("usage: join <code> <name> [avatar]")
		}
		avatar := "🙂"
		if len(fields) >= 4 {
			avatar = fields[3]
		}
		return app.Session.JoinRoom(ctx, model.RoomCode(fields[1]), fields[2], avatar)

	case "start":
		return app.Session.StartRound(ctx)

	case "categories":
		categories, err := app.Store.ListCategories(ctx)
		if err != nil {
			return err
		}
		out.Print(categories)
		return nil

	case "select":
		if len(fields) < 2 {
			return fmt.Errorf("usage: select <category-id>")
		}
		return app.Session.SelectCategory(ctx, model.CategoryID(fields[1]))

	case "answer":
		if len(fields) < 3 {
			return fmt.Errorf("usage: answer <correct|wrong> <text>")
		}
		isCorrect := fields[1] == "correct"
		return app.Session.SubmitAnswer(ctx, strings.Join(fields[2:], " "), isCorrect)

	case "vote":
		if len(fields) < 2 {
			return fmt.Errorf("usage: vote <player-id>")
		}
		return app.Session.SubmitVote(ctx, model.PlayerID(fields[1]))

	case "players":
		out.Print(app.State.Snapshot().Players)
		return nil

	case "room":
		snap := app.State.Snapshot()
		if snap.Room == nil {
			return fmt.Errorf("not in a room")
		}
		out.Print(snap.Room)
		return nil

	case "scores":
		scores, err := app.Session.PlayerScores(ctx)
		if err != nil {
			return err
		}
		out.Print(scores)
		return nil

	case "leave":
		return app.Session.LeaveRoom(ctx)

	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}

// render prints what the player would see on the screen that just
// became visible
func (p *playSession) render(screen nav.Screen) {
	snap := p.app.State.Snapshot()

	fmt.Printf("\n--- %s ---\n", screen)
	switch screen {
	case nav.ScreenLobby:
		if snap.Room != nil {
			fmt.Printf("Room code: %s\n", snap.Room.Code)
		}
		for _, pl := range snap.Players {
			fmt.Printf("  %s %s\n", pl.Avatar, pl.Name)
		}

	case nav.ScreenCategorySelection:
		fmt.Println("You pick the category. Use 'categories' and 'select <id>'.")

	case nav.ScreenWaitingForCategory:
		fmt.Println("Waiting for the chooser to pick a category...")

	case nav.ScreenRoleReveal:
		if snap.Room != nil && snap.Room.GameData != nil && snap.Player != nil {
			if snap.Room.GameData.ImposterID == snap.Player.ID {
				fmt.Println("You are the imposter! Blend in.")
			} else {
				fmt.Printf("Round words: %s\n", strings.Join(snap.Room.GameData.Words, ", "))
			}
		}

	case nav.ScreenRoleVoting:
		fmt.Println("Who is the imposter? Use 'vote <player-id>'. Players:")
		for _, pl := range snap.Players {
			fmt.Printf("  %s  %s %s\n", pl.ID, pl.Avatar, pl.Name)
		}

	case nav.ScreenQuestion:
		if snap.CurrentQuestion != nil && snap.Room != nil {
			fmt.Printf("Q%d: %s\n", snap.Room.QuestionNumber, snap.CurrentQuestion.Text)
			fmt.Println("Use 'answer <correct|wrong> <text>'.")
		}

	case nav.ScreenRoundScoreboard, nav.ScreenRoleResults:
		if snap.Room != nil && len(snap.Room.Scores) > 0 {
			out.Print(snap.Room.Scores)
		}
	}
	fmt.Print("> ")
}
