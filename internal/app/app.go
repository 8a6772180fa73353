package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	corebootstrap "stickerforge/core/bootstrap"
	coretelegram "stickerforge/core/telegram"
	"stickerforge/core/telegram/commands"
	"stickerforge/core/telegram/router"
	"stickerforge/internal/handler"
	"stickerforge/internal/packs"
	"stickerforge/internal/render"
	"stickerforge/internal/session"
	"stickerforge/internal/storage"
	"stickerforge/internal/transcode"

	tele "gopkg.in/telebot.v4"
)

// App holds the assembled bot.
type App struct {
	cfg *Config
	db  *sqlx.DB
	svc *handler.Service
	bot *handler.Bot
}

// Bootstrap initializes logging, the database and the domain services.
func Bootstrap(cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}

	res, err := corebootstrap.Run(corebootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	svc := &handler.Service{
		Sessions:    session.NewStore(cfg.StateExpiry()),
		Render:      render.New(cfg.Stickers.FontPath),
		Transcode:   transcode.New(),
		Packs:       packs.New(cfg.Core.Telegram.Token, coretelegram.BuildHTTPClient()),
		PackRepo:    storage.NewPackRepo(res.DB),
		Stats:       storage.NewStatsRepo(res.DB),
		MaxFileSize: cfg.MaxFileSizeBytes(),
	}

	return &App{
		cfg: cfg,
		db:  res.DB,
		svc: svc,
		bot: handler.NewBot(svc),
	}, nil
}

// TelegramRunOptions wires the registry, routes and lifecycle hooks.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.registerCommands(reg)

	if err := reg.RegisterCallback(handler.CallbackAddToPack, a.bot.OnAddToPack); err != nil {
		return coretelegram.RunOptions{}, err
	}
	if err := reg.RegisterCallback(handler.CallbackMemeCancel, a.bot.OnMemeCancel); err != nil {
		return coretelegram.RunOptions{}, err
	}

	fsm := handler.NewWorkflowFSM(a.bot)

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.Core.Telegram.AdminID,
	})
	routes = append(routes, router.TextRoutes(fsm, reg, router.TextOptions{})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))

	return coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg.CoreConfig(), nil),
		Routes:      routes,
		RouteProvider: func(bot *tele.Bot) []coretelegram.Route {
			// Downloads and pack naming need the live bot identity.
			a.svc.Fetcher = handler.NewTelebotFetcher(bot)
			a.svc.BotUsername = bot.Me.Username
			return router.MediaRoutes(a.bot.OnMedia)
		},
		OnStop: func(ctx context.Context, rt coretelegram.Runtime) error {
			return a.db.Close()
		},
	}, nil
}

func (a *App) registerCommands(reg *coretelegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.bot.Start,
		Description: "Welcome and command overview",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.bot.Help,
		Description: "How every command works",
	})
	reg.RegisterCommand("/stickerify", commands.Command{
		Handler:     a.bot.Stickerify,
		Description: "Photo → static sticker",
	})
	reg.RegisterCommand("/addtext", commands.Command{
		Handler:     a.bot.AddText,
		Description: "Photo + caption → sticker",
	})
	reg.RegisterCommand("/meme", commands.Command{
		Handler:     a.bot.Meme,
		Description: "Build a top/bottom text meme",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.bot.Cancel,
		Description: "Abort the meme builder",
	})
	reg.RegisterCommand("/gif2sticker", commands.Command{
		Handler:     a.bot.Gif2Sticker,
		Description: "GIF or video → video sticker",
		Aliases:     []string{"gif"},
	})
	reg.RegisterCommand("/quote2sticker", commands.Command{
		Handler:     a.bot.Quote2Sticker,
		Description: "Reply to a message → quote card",
		Aliases:     []string{"quote"},
	})
	reg.RegisterCommand("/kang", commands.Command{
		Handler:     a.bot.Kang,
		Description: "Copy a sticker into your pack",
	})
	reg.RegisterCommand("/createstickerpack", commands.Command{
		Handler:     a.bot.CreatePack,
		Description: "Create a new sticker pack",
	})
	reg.RegisterCommand("/addsticker", commands.Command{
		Handler:     a.bot.AddSticker,
		Description: "Add media to one of your packs",
	})
	reg.RegisterCommand("/mypacks", commands.Command{
		Handler:     a.bot.MyPacks,
		Description: "List your packs",
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     a.bot.Stats,
		Description: "Conversion counters",
		AdminOnly:   true,
		Hidden:      true,
	})
}
