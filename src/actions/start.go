package actions

import (
	"context"
	"errors"

	"github.com/stake-plus/raiinmaker-verify/src/actions/core"
	"github.com/stake-plus/raiinmaker-verify/src/api/webserver"
	"github.com/stake-plus/raiinmaker-verify/src/config"
	"github.com/stake-plus/raiinmaker-verify/src/discord"
	"go.uber.org/zap"
)

// ErrNoSurfaces is returned when neither the API nor Discord is configured.
var ErrNoSurfaces = errors.New("actions: no surface enabled, set jwt_secret or discord_token")

// StartAll wires up enabled surfaces and starts the manager.
func StartAll(ctx context.Context, rt *Runtime) (*Manager, error) {
	svc := config.LoadService(rt.Settings)
	mgr := core.NewManager(rt.Logger)

	if svc.APIEnabled() {
		srv := webserver.NewServer(svc.ListenAddr, webserver.RouterConfig{
			JWTSecret:    []byte(svc.JWTSecret),
			AllowOrigins: svc.AllowOrigins,
			RateLimit:    svc.RateLimit,
		}, rt.Orchestrator, rt.Logger)
		if err := mgr.Add(srv); err != nil {
			return nil, err
		}
	} else {
		rt.Logger.Info("api disabled, jwt_secret not set")
	}

	if svc.DiscordEnabled() {
		mod, err := discord.NewModule(discord.Config{
			Token:   svc.DiscordToken,
			GuildID: svc.GuildID,
			RoleID:  svc.RoleID,
		}, rt.Orchestrator, rt.Logger)
		if err != nil {
			return nil, err
		}
		if err := mgr.Add(mod); err != nil {
			return nil, err
		}
	} else {
		rt.Logger.Info("discord disabled, discord_token not set")
	}

	if len(mgr.Names()) == 0 {
		return nil, ErrNoSurfaces
	}
	if err := mgr.Start(ctx); err != nil {
		return nil, err
	}
	rt.Logger.Info("surfaces started", zap.Strings("modules", mgr.Names()))
	return mgr, nil
}
