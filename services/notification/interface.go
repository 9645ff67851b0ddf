package notification

import (
	"context"
	"fmt"

	providerRepo "taskora/database/repository/provider"
	userRepo "taskora/database/repository/user"
)

// NotificationService defines the email notices the engine sends. Delivery is
// fire-and-forget from the engine's perspective: a failure is logged, never
// allowed to block the state transition that triggered it.
type NotificationService interface {
	SendUserEmail(ctx context.Context, userID, subject, body string) error
	SendProviderEmail(ctx context.Context, providerID, subject, body string) error
}

// DefaultNotificationService resolves recipient addresses through the user
// and provider stores and delivers through an EmailSender.
type DefaultNotificationService struct {
	Users     userRepo.UserRepository
	Providers providerRepo.ProviderRepository
	Sender    EmailSender
}

func NewDefaultNotificationService(
	users userRepo.UserRepository,
	providers providerRepo.ProviderRepository,
	sender EmailSender,
) (*DefaultNotificationService, error) {
	if users == nil || providers == nil || sender == nil {
		return nil, fmt.Errorf("notification service initialization error: missing dependency")
	}
	return &DefaultNotificationService{Users: users, Providers: providers, Sender: sender}, nil
}

// SendUserEmail looks up a user's address and sends a plain-text email.
func (s *DefaultNotificationService) SendUserEmail(ctx context.Context, userID, subject, body string) error {
	u, err := s.Users.GetByID(userID)
	if err != nil {
		return fmt.Errorf("SendUserEmail: could not find user %s: %w", userID, err)
	}
	if u.Email == "" {
		return fmt.Errorf("SendUserEmail: user %s has no email address", userID)
	}
	return s.Sender.Send(ctx, EmailMessage{
		To:      u.Email,
		ToName:  u.Name,
		Subject: subject,
		Body:    body,
	})
}

// SendProviderEmail looks up a provider's address and sends a plain-text email.
func (s *DefaultNotificationService) SendProviderEmail(ctx context.Context, providerID, subject, body string) error {
	p, err := s.Providers.GetByID(providerID)
	if err != nil {
		return fmt.Errorf("SendProviderEmail: could not find provider %s: %w", providerID, err)
	}
	if p.Profile.Email == "" {
		return fmt.Errorf("SendProviderEmail: provider %s has no email address", providerID)
	}
	return s.Sender.Send(ctx, EmailMessage{
		To:      p.Profile.Email,
		ToName:  p.Profile.Name,
		Subject: subject,
		Body:    body,
	})
}
