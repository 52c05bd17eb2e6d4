package flows

import (
	"context"
	"errors"
)

// RegisterRequest is the flow-local sign-up payload forwarded to the directory.
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
}

// LoginFailureKind classifies credential sign-in failures.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureRateLimited
	LoginFailureInvalidCredentials
	LoginFailureDirectory
	LoginFailureLimiter
	LoginFailureSignIn
)

// LoginResult wraps the sign-in result with credential check metadata.
type LoginResult struct {
	Failure LoginFailureKind
	Err     error
	SignIn  SignInResult
}

// LoginDeps captures credential sign-in dependencies.
type LoginDeps struct {
	Directory          Directory
	RateLimiter        LoginLimiter
	SignIn             SignInDeps
	InvalidCredentials error
	RateLimited        error
	Warn               func(string, ...any)
}

// RunLogin verifies credentials against the directory and signs the returned
// subject in. Failed checks count against the identifier and client IP.
func RunLogin(ctx context.Context, identifier, password, ip string, deps LoginDeps) LoginResult {
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}

	if deps.RateLimiter != nil {
		if err := deps.RateLimiter.CheckLogin(ctx, identifier, ip); err != nil {
			if deps.RateLimited != nil && errors.Is(err, deps.RateLimited) {
				return LoginResult{Failure: LoginFailureRateLimited, Err: err}
			}
			return LoginResult{Failure: LoginFailureLimiter, Err: err}
		}
	}

	subject, err := deps.Directory.VerifyCredentials(ctx, identifier, password)
	if err != nil {
		if deps.InvalidCredentials != nil && errors.Is(err, deps.InvalidCredentials) {
			if deps.RateLimiter != nil {
				if incErr := deps.RateLimiter.IncrementLogin(ctx, identifier, ip); incErr != nil &&
					(deps.RateLimited == nil || !errors.Is(incErr, deps.RateLimited)) {
					deps.Warn("tokenAuth: login attempt counter update failed", "error", incErr)
				}
			}
			return LoginResult{Failure: LoginFailureInvalidCredentials, Err: err}
		}
		return LoginResult{Failure: LoginFailureDirectory, Err: err}
	}

	res := RunSignIn(ctx, subject, deps.SignIn)
	if res.Failure != SignInFailureNone {
		return LoginResult{Failure: LoginFailureSignIn, Err: res.Err, SignIn: res}
	}

	if deps.RateLimiter != nil {
		if err := deps.RateLimiter.ResetLogin(ctx, identifier, ip); err != nil {
			deps.Warn("tokenAuth: login attempt counter reset failed", "error", err)
		}
	}

	return LoginResult{SignIn: res}
}

// RegisterFailureKind classifies sign-up failures.
type RegisterFailureKind int

const (
	RegisterFailureNone RegisterFailureKind = iota
	RegisterFailureDirectory
	RegisterFailureSignIn
)

// RegisterResult wraps the sign-in result issued for a newly created user.
type RegisterResult struct {
	Failure RegisterFailureKind
	Err     error
	SignIn  SignInResult
}

// RegisterDeps captures sign-up dependencies.
type RegisterDeps struct {
	Directory Directory
	SignIn    SignInDeps
}

// RunRegister creates the user in the directory and signs the new subject in.
func RunRegister(ctx context.Context, req RegisterRequest, deps RegisterDeps) RegisterResult {
	subject, err := deps.Directory.CreateUser(ctx, req)
	if err != nil {
		return RegisterResult{Failure: RegisterFailureDirectory, Err: err}
	}

	res := RunSignIn(ctx, subject, deps.SignIn)
	if res.Failure != SignInFailureNone {
		return RegisterResult{Failure: RegisterFailureSignIn, Err: res.Err, SignIn: res}
	}
	return RegisterResult{SignIn: res}
}
