package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"quizroom/client/internal/session"
	"quizroom/client/internal/transport"
)

func (a *app) createRoom(ctx context.Context, questionnaireID string) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	ctrl := session.NewController(session.Config{
		Games:  a.client,
		Rooms:  a.store,
		Notify: &toastNotifier{},
		Nav:    noopNavigator{},
	})
	token, err := ctrl.CreateRoom(ctx, questionnaireID)
	if err != nil {
		return err
	}
	fmt.Printf("room ready: %s (quizroom play to enter)\n", token)
	return nil
}

func (a *app) joinRoom(ctx context.Context, gameID string) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	ctrl := session.NewController(session.Config{
		Games:  a.client,
		Rooms:  a.store,
		Notify: &toastNotifier{},
		Nav:    noopNavigator{},
	})
	token, err := ctrl.JoinRoom(ctx, gameID)
	if err != nil {
		return err
	}
	fmt.Printf("joined: %s (quizroom play to enter)\n", token)
	return nil
}

// play enters the active room and runs the session until the server stops
// it, the user leaves, or the process is interrupted.
func (a *app) play() error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	roomToken := a.store.Room()
	if roomToken == "" {
		return fmt.Errorf("no active room: quizroom create or quizroom join first")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	userCtx, userCancel := context.WithTimeout(ctx, 10*time.Second)
	user, err := a.client.CheckUser(userCtx)
	userCancel()
	if err != nil {
		return fmt.Errorf("resolve local identity: %w", err)
	}

	broadcast, err := transport.NewNATS(transport.NATSConfig{
		URL:           a.cfg.BroadcastURL,
		Name:          "quizroom-" + user.ID,
		MaxReconnects: -1,
		ReconnectWait: a.cfg.ReconnectWait,
		JoinTimeout:   a.cfg.JoinTimeout,
	})
	if err != nil {
		return err
	}
	defer broadcast.Close()

	nav := newHomeNavigator()
	ctrl := session.NewController(session.Config{
		Games:     a.client,
		Transport: broadcast,
		Rooms:     a.store,
		Notify:    &toastNotifier{},
		Nav:       nav,
		Local:     session.Member{ID: user.ID, Name: user.Name},
		OnTick: func(remaining int) {
			fmt.Printf("\r%2ds left ", remaining)
			if remaining == 0 {
				fmt.Println()
			}
		},
	})

	if err := ctrl.Open(ctx, roomToken); err != nil {
		return err
	}
	defer ctrl.Close()

	printSnapshot(ctrl.Snapshot())
	fmt.Println(`type an answer and press enter; "/status" refreshes, "/leave" exits`)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-nav.Done():
			fmt.Println("session ended")
			return nil
		case sig := <-sigCh:
			log.Info().Str("signal", sig.String()).Msg("leaving room")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := a.handleLine(ctx, ctrl, strings.TrimSpace(line)); err != nil {
				if errors.Is(err, errLeft) {
					fmt.Println("left room")
					return nil
				}
				return err
			}
		}
	}
}

var errLeft = fmt.Errorf("left room")

func (a *app) handleLine(ctx context.Context, ctrl *session.Controller, line string) error {
	switch {
	case line == "":
		return nil
	case line == "/leave":
		ctrl.LeaveRoom()
		return errLeft
	case line == "/status":
		fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := ctrl.FetchStatus(fetchCtx); err != nil {
			log.Warn().Err(err).Msg("status refresh failed")
			return nil
		}
		printSnapshot(ctrl.Snapshot())
		return nil
	default:
		submitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := ctrl.SubmitAnswer(submitCtx, line); err != nil {
			log.Warn().Err(err).Msg("answer rejected")
		}
		return nil
	}
}

func printSnapshot(state session.State) {
	fmt.Printf("room %s [%s] as %s\n", state.RoomToken, state.Status, state.Relation)
	for _, m := range state.Members {
		fmt.Printf("  - %s (%s)\n", m.Name, m.Relation)
	}
	switch state.Status {
	case session.StatusPlaying:
		if state.Round != nil {
			fmt.Printf("Q: %s (%d answered)\n", state.Round.Question, state.Round.Answered)
		}
	case session.StatusFinished:
		fmt.Printf("final score: %d\n", state.Score)
		for i, row := range state.Leaderboard {
			fmt.Printf("%2d. %s\t%d\n", i+1, row.Name, row.Score)
		}
	}
}
