package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"quizroom/client/internal/api"
	"quizroom/client/internal/config"
	"quizroom/client/internal/store"
)

const usage = `usage: quizroom <command> [args]

commands:
  login <email> <password>        sign in and store the token
  register <name> <email> <pass>  create an account
  forgot-password <email>         request a password reset mail
  logout                          sign out and clear stored state
  whoami                          show the authenticated account
  questionnaires                  list questionnaires
  new-questionnaire <title> [description]
  edit-questionnaire <id> <title> [description]
  delete-questionnaire <id>
  quizzes <questionnaire-id>      list questions of a questionnaire
  new-quiz <questionnaire-id> <question> <right-answer> <seconds> <answer>...
  edit-quiz <id> <questionnaire-id> <question> <right-answer> <seconds> <answer>...
  delete-quiz <id>
  users                           list users (admin)
  edit-user <id> <name> <email>   rename a user (admin)
  delete-user <id>                remove a user (admin)
  export-users                    download the user list as CSV (admin)
  create <questionnaire-id>       create a room and store its token
  join <game-id>                  join a room and store its token
  play                            enter the active room and play
  kick <player-id>                remove a player from the active room (host)
  leave                           forget the active room
`

func main() {
	cfg := config.Load()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	st, err := store.Open(cfg.StatePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.StatePath).Msg("could not open state file")
	}

	client := api.NewClient(cfg.APIBaseURL)
	client.SetToken(st.Token())
	client.OnUnauthorized(func() {
		if err := st.ClearToken(); err != nil {
			log.Warn().Err(err).Msg("could not clear stored token")
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	app := &app{cfg: cfg, store: st, client: client}

	if err := app.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("command failed")
	}
}

type app struct {
	cfg    config.Config
	store  *store.Store
	client *api.Client
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		if len(args) != 2 {
			return fmt.Errorf("login needs <email> <password>")
		}
		return a.login(ctx, args[0], args[1])
	case "register":
		if len(args) != 3 {
			return fmt.Errorf("register needs <name> <email> <password>")
		}
		return a.register(ctx, args[0], args[1], args[2])
	case "forgot-password":
		if len(args) != 1 {
			return fmt.Errorf("forgot-password needs <email>")
		}
		return a.forgotPassword(ctx, args[0])
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "questionnaires":
		return a.questionnaires(ctx)
	case "new-questionnaire":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("new-questionnaire needs <title> [description]")
		}
		return a.newQuestionnaire(ctx, args[0], optionalArg(args, 1))
	case "edit-questionnaire":
		if len(args) < 2 || len(args) > 3 {
			return fmt.Errorf("edit-questionnaire needs <id> <title> [description]")
		}
		return a.editQuestionnaire(ctx, args[0], args[1], optionalArg(args, 2))
	case "delete-questionnaire":
		if len(args) != 1 {
			return fmt.Errorf("delete-questionnaire needs <id>")
		}
		return a.deleteQuestionnaire(ctx, args[0])
	case "quizzes":
		if len(args) != 1 {
			return fmt.Errorf("quizzes needs <questionnaire-id>")
		}
		return a.quizzes(ctx, args[0])
	case "new-quiz":
		if len(args) < 5 {
			return fmt.Errorf("new-quiz needs <questionnaire-id> <question> <right-answer> <seconds> <answer>...")
		}
		quiz, err := quizFromArgs("", args)
		if err != nil {
			return err
		}
		return a.newQuiz(ctx, quiz)
	case "edit-quiz":
		if len(args) < 6 {
			return fmt.Errorf("edit-quiz needs <id> <questionnaire-id> <question> <right-answer> <seconds> <answer>...")
		}
		quiz, err := quizFromArgs(args[0], args[1:])
		if err != nil {
			return err
		}
		return a.editQuiz(ctx, quiz)
	case "delete-quiz":
		if len(args) != 1 {
			return fmt.Errorf("delete-quiz needs <id>")
		}
		return a.deleteQuiz(ctx, args[0])
	case "users":
		return a.users(ctx)
	case "edit-user":
		if len(args) != 3 {
			return fmt.Errorf("edit-user needs <id> <name> <email>")
		}
		return a.editUser(ctx, args[0], args[1], args[2])
	case "delete-user":
		if len(args) != 1 {
			return fmt.Errorf("delete-user needs <id>")
		}
		return a.deleteUser(ctx, args[0])
	case "export-users":
		return a.exportUsers(ctx)
	case "create":
		if len(args) != 1 {
			return fmt.Errorf("create needs <questionnaire-id>")
		}
		return a.createRoom(ctx, args[0])
	case "join":
		if len(args) != 1 {
			return fmt.Errorf("join needs <game-id>")
		}
		return a.joinRoom(ctx, args[0])
	case "play":
		return a.play()
	case "kick":
		if len(args) != 1 {
			return fmt.Errorf("kick needs <player-id>")
		}
		return a.kick(ctx, args[0])
	case "leave":
		return a.store.ClearRoom()
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

// requireAuth checks the stored token before an authenticated call so an
// expired session fails with a clear message instead of a doomed request.
func (a *app) requireAuth() error {
	if a.store.Token() == "" || a.store.TokenExpired(time.Now()) {
		return fmt.Errorf("not logged in (or session expired): run quizroom login")
	}
	return nil
}

func (a *app) login(ctx context.Context, email, password string) error {
	result, err := a.client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := a.store.SetToken(result.Token); err != nil {
		return err
	}
	role := "player"
	if result.IsAdmin {
		role = "admin"
	}
	fmt.Printf("logged in as %s (%s)\n", email, role)
	return nil
}

func (a *app) register(ctx context.Context, name, email, password string) error {
	if err := a.client.Register(ctx, name, email, password, password); err != nil {
		return err
	}
	fmt.Printf("account created for %s, run quizroom login\n", email)
	return nil
}

func (a *app) forgotPassword(ctx context.Context, email string) error {
	if err := a.client.ForgotPassword(ctx, email); err != nil {
		return err
	}
	fmt.Printf("reset mail requested for %s\n", email)
	return nil
}

func (a *app) kick(ctx context.Context, playerID string) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	room := a.store.Room()
	if room == "" {
		return fmt.Errorf("no active room")
	}
	code := strings.TrimPrefix(room, "room.")
	if err := a.client.KickPlayer(ctx, playerID, code); err != nil {
		return err
	}
	fmt.Printf("removed player %s\n", playerID)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		log.Warn().Err(err).Msg("server logout failed, clearing local state anyway")
	}
	return a.store.ClearAll()
}

func (a *app) whoami(ctx context.Context) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	user, err := a.client.CheckUser(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s> id=%s admin=%t\n", user.Name, user.Email, user.ID, user.IsAdmin)
	return nil
}

func (a *app) questionnaires(ctx context.Context) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	items, err := a.client.ListQuestionnaires(ctx, 0, "")
	if err != nil {
		return err
	}
	for _, q := range items {
		fmt.Printf("%s\t%s\t(%d questions)\n", q.ID, q.Title, q.QuizCount)
	}
	return nil
}

func (a *app) quizzes(ctx context.Context, questionnaireID string) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	items, err := a.client.ListQuizzes(ctx, questionnaireID)
	if err != nil {
		return err
	}
	for _, q := range items {
		fmt.Printf("%s\t%s\t(%ds)\n", q.ID, q.Question, q.Time)
	}
	return nil
}

func (a *app) newQuestionnaire(ctx context.Context, title, description string) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	id, err := a.client.CreateQuestionnaire(ctx, title, description)
	if err != nil {
		return err
	}
	fmt.Printf("questionnaire %s created\n", id)
	return nil
}

func (a *app) editQuestionnaire(ctx context.Context, id, title, description string) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	if err := a.client.UpdateQuestionnaire(ctx, id, title, description); err != nil {
		return err
	}
	fmt.Printf("questionnaire %s updated\n", id)
	return nil
}

func (a *app) deleteQuestionnaire(ctx context.Context, id string) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	if err := a.client.DeleteQuestionnaire(ctx, id); err != nil {
		return err
	}
	fmt.Printf("questionnaire %s deleted\n", id)
	return nil
}

func (a *app) newQuiz(ctx context.Context, quiz api.Quiz) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	if err := a.client.CreateQuiz(ctx, quiz); err != nil {
		return err
	}
	fmt.Println("quiz created")
	return nil
}

func (a *app) editQuiz(ctx context.Context, quiz api.Quiz) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	if err := a.client.UpdateQuiz(ctx, quiz); err != nil {
		return err
	}
	fmt.Printf("quiz %s updated\n", quiz.ID)
	return nil
}

func (a *app) deleteQuiz(ctx context.Context, id string) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	if err := a.client.DeleteQuiz(ctx, id); err != nil {
		return err
	}
	fmt.Printf("quiz %s deleted\n", id)
	return nil
}

func (a *app) editUser(ctx context.Context, id, name, email string) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	if err := a.client.UpdateUser(ctx, id, name, email); err != nil {
		return err
	}
	fmt.Printf("user %s updated\n", id)
	return nil
}

func (a *app) deleteUser(ctx context.Context, id string) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	if err := a.client.DeleteUser(ctx, id); err != nil {
		return err
	}
	fmt.Printf("user %s deleted\n", id)
	return nil
}

func optionalArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// quizFromArgs builds a quiz from <questionnaire-id> <question>
// <right-answer> <seconds> <answer>... positional arguments.
func quizFromArgs(id string, args []string) (api.Quiz, error) {
	seconds, err := strconv.Atoi(args[3])
	if err != nil {
		return api.Quiz{}, fmt.Errorf("seconds must be a number, got %q", args[3])
	}
	return api.Quiz{
		ID:              id,
		QuestionnaireID: args[0],
		Question:        args[1],
		RightAnswer:     args[2],
		Time:            seconds,
		Answers:         args[4:],
	}, nil
}

func (a *app) users(ctx context.Context) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	items, err := a.client.ListUsers(ctx, 0, "")
	if err != nil {
		return err
	}
	for _, u := range items {
		fmt.Printf("%s\t%s\t%s\n", u.ID, u.Name, u.Email)
	}
	return nil
}

func (a *app) exportUsers(ctx context.Context) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	filename, data, err := a.client.ExportUsers(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	fmt.Printf("wrote %s (%d bytes)\n", filename, len(data))
	return nil
}
