package router

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/template/html/v2"

	"github.com/ManuelReschke/Chirper/app/repository"
	"github.com/ManuelReschke/Chirper/internal/pkg/auth"
	"github.com/ManuelReschke/Chirper/internal/pkg/chirps"
	"github.com/ManuelReschke/Chirper/internal/pkg/credentials"
	"github.com/ManuelReschke/Chirper/internal/pkg/events"
	"github.com/ManuelReschke/Chirper/internal/pkg/mail"
	"github.com/ManuelReschke/Chirper/internal/pkg/oauth"
	"github.com/ManuelReschke/Chirper/internal/pkg/security"
	"github.com/ManuelReschke/Chirper/internal/pkg/tokens"
	"github.com/ManuelReschke/Chirper/internal/pkg/utils"
	"github.com/ManuelReschke/Chirper/internal/pkg/verification"
	"github.com/ManuelReschke/Chirper/views"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Deps are the collaborators the routes are built from. Nil storages keep
// their data in process memory.
type Deps struct {
	Repos          *repository.Repositories
	Sessions       *fibersession.Store
	Signer         *security.Signer
	Mailer         mail.Mailer
	Publisher      events.Publisher
	BaseURL        string
	SecureCookies  bool
	CSRFStorage    fiber.Storage
	LimiterStorage fiber.Storage
	Now            func() time.Time
}

// Services are the domain services shared by both routers.
type Services struct {
	Credentials  *credentials.Store
	Tokens       *tokens.Service
	Verification *verification.Service
	Chirps       *chirps.Service
	Guard        *auth.Guard
	Linker       *oauth.Linker
}

func NewServices(d Deps) *Services {
	creds := credentials.NewStore(d.Repos.User, validator.New())
	return &Services{
		Credentials:  creds,
		Tokens:       tokens.NewService(d.Repos.Token, d.Repos.User, d.Now),
		Verification: verification.NewService(d.Repos.User, d.Signer, d.Mailer, d.Publisher, d.BaseURL, d.Now),
		Chirps:       chirps.NewService(d.Repos.Chirp),
		Guard:        auth.NewGuard(d.Sessions, d.Repos.User, creds, d.Signer, d.SecureCookies),
		Linker:       oauth.NewLinker(d.Repos.User, d.Now),
	}
}

// NewApp creates a fiber application with the embedded views and the error handler.
func NewApp() *fiber.App {
	engine := html.NewFileSystem(http.FS(views.FS), ".html")
	engine.AddFunc("gravatar", utils.GetGravatarURL)

	return fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: ErrorHandler,
	})
}

// New creates the application with all routes installed.
func New(d Deps) *fiber.App {
	app := NewApp()
	InstallRouter(app, d)
	return app
}

// InstallRouter registers all routes on app and returns the services behind them.
func InstallRouter(app *fiber.App, d Deps) *Services {
	svc := NewServices(d)
	// The HttpRouter goes first: it installs the UserContext middleware the
	// web routes depend on.
	setup(app, NewHttpRouter(d, svc), NewApiRouter(d, svc))
	return svc
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
