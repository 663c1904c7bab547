package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/stagelist/internal/models"
	"github.com/desertthunder/stagelist/internal/shared"
	"github.com/urfave/cli/v3"
)

// withCloud opens the application without the initial cloud load and subscribes the session to
// auth events, so signing in runs the load and signing out returns to local-only.
func (r *Runner) withCloud(ctx context.Context, fn func(*env) error) error {
	if !r.config.Cloud.Enabled {
		return fmt.Errorf("%w: cloud sync is disabled; set cloud.enabled = true in %s", shared.ErrServiceUnavailable, r.configName())
	}

	e, err := r.open(ctx, openOpts{offline: true})
	if err != nil {
		return err
	}
	unsubscribe := e.session.WatchAuth(ctx, e.auth)
	err = fn(e)
	unsubscribe()
	return errors.Join(err, e.Close(context.WithoutCancel(ctx)))
}

// AuthSignUp creates an account and signs in.
func (r *Runner) AuthSignUp(ctx context.Context, cmd *cli.Command) error {
	return r.withCloud(ctx, func(e *env) error {
		email, password, err := r.credentials(ctx, e, cmd)
		if err != nil {
			return err
		}
		if len(password) < 6 {
			return fmt.Errorf("%w: password must be at least 6 characters long", shared.ErrInvalidInput)
		}

		r.logger.Info("creating account", "email", email)
		session, err := e.auth.SignUp(ctx, email, password, cmd.String("name"), cmd.Bool("remember"))
		if err != nil {
			return err
		}
		return r.reportSignIn(e, session)
	})
}

// AuthSignIn signs in and runs the initial cloud load.
func (r *Runner) AuthSignIn(ctx context.Context, cmd *cli.Command) error {
	return r.withCloud(ctx, func(e *env) error {
		email, password, err := r.credentials(ctx, e, cmd)
		if err != nil {
			return err
		}

		session, err := e.auth.SignIn(ctx, email, password, cmd.Bool("remember"))
		if err != nil {
			return err
		}
		return r.reportSignIn(e, session)
	})
}

// AuthSignOut discards the stored session.
func (r *Runner) AuthSignOut(ctx context.Context, cmd *cli.Command) error {
	return r.withCloud(ctx, func(e *env) error {
		if err := e.auth.SignOut(ctx); err != nil {
			return err
		}
		return r.writePlain("✓ Signed out. Lists stay on this device.\n")
	})
}

// AuthStatus reports the stored session and backend health.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	return r.withCloud(ctx, func(e *env) error {
		r.writePlain("Backend: %s\n", r.config.Cloud.BaseURL)
		if err := e.engine.Remote().Health(ctx); err != nil {
			r.writePlain("Health:  ✗ %v\n", err)
		} else {
			r.writePlain("Health:  ✓ ok\n")
		}

		session, err := e.auth.Session(ctx)
		switch {
		case errors.Is(err, shared.ErrNotAuthenticated):
			if email, ok := e.auth.RememberedEmail(ctx); ok {
				return r.writePlain("Account: not signed in (remembered %s)\n", email)
			}
			return r.writePlain("Account: not signed in\n")
		case err != nil:
			return err
		}
		return r.writePlain("Account: ✓ %s (token valid until %s)\n", session.Email, session.Expiry.Local().Format("2006-01-02 15:04"))
	})
}

func (r *Runner) reportSignIn(e *env, session *models.AuthSession) error {
	r.writePlain("✓ Signed in as %s\n", session.Email)
	if e.session.CloudEnabled() {
		return r.writePlain("Cloud sync is on; current list: %s\n", e.session.Title())
	}
	return r.writePlain("Cloud is unreachable; working locally until the next sign-in or sync.\n")
}

// credentials reads --email (falling back to the remembered email) and --password (falling back to stdin).
func (r *Runner) credentials(ctx context.Context, e *env, cmd *cli.Command) (string, string, error) {
	email := strings.TrimSpace(cmd.String("email"))
	if email == "" {
		remembered, ok := e.auth.RememberedEmail(ctx)
		if !ok {
			return "", "", fmt.Errorf("%w: --email", shared.ErrMissingArgument)
		}
		email = remembered
	}

	password := cmd.String("password")
	if password == "" {
		r.writePlain("Password for %s: ", email)
		scanner := bufio.NewScanner(r.input)
		if !scanner.Scan() {
			return "", "", fmt.Errorf("%w: password", shared.ErrMissingArgument)
		}
		password = strings.TrimRight(scanner.Text(), "\r\n")
	}
	return email, password, nil
}

func (r *Runner) configName() string {
	if r.configPath == "" {
		return "config.toml"
	}
	return r.configPath
}
