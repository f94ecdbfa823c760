package api

const (
	// Auth
	LoginEndpoint          = "/api/login"
	RegisterEndpoint       = "/api/register"
	ForgotPasswordEndpoint = "/api/forgot-password"
	CheckUserEndpoint      = "/api/check-user"
	LogoutEndpoint         = "/api/logout"

	// Games
	GamesEndpoint      = "/api/user/games"
	GameStatusEndpoint = "/api/user/games/status"
	GameAnswerEndpoint = "/api/user/games/answer"
	GamePlayerEndpoint = "/api/user/games/player"

	// Resources
	QuestionnairesEndpoint = "/api/user/questionnaires"
	QuizzesEndpoint        = "/api/user/quizzes"
	UsersEndpoint          = "/api/admin/users"
	UsersExportEndpoint    = "/api/admin/users/export"
)
