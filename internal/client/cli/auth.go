package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/sealtalk/internal/auth"
	"github.com/dmitrijs2005/sealtalk/internal/common"
	"github.com/dmitrijs2005/sealtalk/internal/models"
)

// Login reads an identity token, resolves the profile and provisions the
// user's keys. A provisioning failure does not fail the login; the session
// continues in degraded mode.
func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		a.printf("Already logged in as %s\n", a.user.ID)
		return nil
	}

	token, err := GetSecret(a.reader, "Identity token", a.out)
	if err != nil {
		a.printf("error: %v\n", err)
		return err
	}
	defer common.WipeByteArray(token)

	userID, err := auth.ParseIdentityToken(string(token), []byte(a.config.IdentitySecret))
	if err != nil {
		a.printf("Login unsuccessful: %v\n", err)
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	user, err := a.profiles.Get(ctx, userID)
	if errors.Is(err, common.ErrorNotFound) {
		user = &models.User{ID: userID, DisplayName: userID}
		err = a.profiles.Create(ctx, user)
	}
	if err != nil {
		a.printf("Login unsuccessful: %v\n", err)
		return err
	}

	a.user = user
	a.warned = false
	a.logger.Info(ctx, "logged in", "user_id", userID)

	provisioned, err := a.provisioner.EnsureKeyPair(ctx, user)
	if err != nil {
		a.degrade(err)
		return nil
	}
	a.user = provisioned
	a.mode = ModeSecure

	if err := a.provisioner.CheckConsistency(ctx, userID); err != nil {
		a.logger.Warn(ctx, "key consistency check failed", "user_id", userID, "error", err)
		a.printf("Warning: %v\n", err)
	}

	a.printf("Logged in as %s\n", userID)
	return nil
}

// degrade switches to degraded mode and warns the user once per session.
func (a *App) degrade(cause error) {
	a.mode = ModeDegraded
	if a.warned {
		return
	}
	a.warned = true
	a.printf("Warning: private messaging is unavailable for this session (%v)\n", cause)
}

// Logout closes every conversation, destroying their secrets.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.printf("Not logged in\n")
		return nil
	}

	a.conversations.CloseAll()
	a.logger.Info(ctx, "logged out", "user_id", a.user.ID)

	a.user = nil
	a.mode = ""
	a.current = nil
	a.lastView = nil
	a.printf("Logged out\n")
	return nil
}

// Forget removes this device's keys for the current user and logs out.
func (a *App) Forget(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.printf("Not logged in\n")
		return nil
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.provisioner.Forget(ctx, a.user.ID); err != nil {
		a.printf("error: %v\n", err)
		return err
	}
	a.printf("Local keys removed\n")
	return a.Logout(ctx)
}

// ForgetDevice wipes the local store, removing the keys of every user that
// signed in on this device. A signed-in user is logged out afterwards.
func (a *App) ForgetDevice(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	users, err := a.provisioner.ForgetDevice(ctx)
	if err != nil {
		a.printf("error: %v\n", err)
		return err
	}
	a.printf("Local keys removed for %d user(s)\n", len(users))

	if !a.isLoggedIn() {
		return nil
	}
	return a.Logout(ctx)
}

// Check runs the published-key consistency diagnostic.
func (a *App) Check(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.printf("Not logged in\n")
		return nil
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.provisioner.CheckConsistency(ctx, a.user.ID); err != nil {
		a.printf("Key check failed: %v\n", err)
		return err
	}
	a.printf("Published key matches this device\n")
	return nil
}

func (a *App) Whoami(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.printf("Not logged in\n")
		return nil
	}
	a.printf("%s (%s)\n", a.user.ID, a.mode)
	if a.user.PublicKey != "" {
		a.printf("public key: %s\n", a.user.PublicKey)
	}
	return nil
}
