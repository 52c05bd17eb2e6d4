package flows

import "context"

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.SignIn.Codec != nil && s.deps.SignIn.Sessions != nil
}

func (s Service) SignIn(ctx context.Context, subject string) SignInResult {
	return RunSignIn(ctx, subject, s.deps.SignIn)
}

func (s Service) Reissue(ctx context.Context, accessToken string) ReissueResult {
	return RunReissue(ctx, accessToken, s.deps.Reissue)
}

func (s Service) SignOut(ctx context.Context, accessToken string) SignOutResult {
	return RunSignOut(ctx, accessToken, s.deps.SignOut)
}

func (s Service) Validate(ctx context.Context, accessToken string) ValidateResult {
	return RunValidate(ctx, accessToken, s.deps.Validate)
}

func (s Service) Login(ctx context.Context, identifier, password, ip string) LoginResult {
	return RunLogin(ctx, identifier, password, ip, s.deps.Login)
}

func (s Service) Register(ctx context.Context, req RegisterRequest) RegisterResult {
	return RunRegister(ctx, req, s.deps.Register)
}

// SocialReady reports whether social sign-in has a verifier wired.
func (s Service) SocialReady() bool {
	return s.deps.Social.Verifier != nil
}

func (s Service) SocialSignIn(ctx context.Context, email, providerToken string) SocialResult {
	return RunSocialSignIn(ctx, email, providerToken, s.deps.Social)
}

func (s Service) SocialRegister(ctx context.Context, req SocialRegisterRequest, providerToken string) SocialResult {
	return RunSocialRegister(ctx, req, providerToken, s.deps.Social)
}
