package identity

import (
	"context"
	"fmt"
	"path/filepath"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"identity_sync_backend/internal/config"
)

// claimsClient is the part of *auth.Client used here.
type claimsClient interface {
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
	SetCustomUserClaims(ctx context.Context, uid string, customClaims map[string]interface{}) error
}

// FirebaseService mirrors the role into Firebase Auth custom claims, the
// Firebase equivalent of private metadata.
type FirebaseService struct {
	authClient claimsClient
	logger     *zap.Logger
}

// NewFirebaseService initializes the Firebase Admin SDK and creates a new FirebaseService.
func NewFirebaseService(cfg *config.Config, logger *zap.Logger) (*FirebaseService, error) {
	if cfg.FirebaseServiceAccountKeyPath == "" {
		logger.Error("Firebase service account key path is not configured.")
		return nil, fmt.Errorf("firebase service account key path is required")
	}

	cleanPath := filepath.Clean(cfg.FirebaseServiceAccountKeyPath)
	opt := option.WithCredentialsFile(cleanPath)

	var conf *firebase.Config
	if cfg.FirebaseProjectID != "" {
		conf = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}
	// With a nil config the SDK infers the project from the credentials.
	app, err := firebase.NewApp(context.Background(), conf, opt)
	if err != nil {
		logger.Error("Failed to initialize Firebase Admin SDK app", zap.Error(err), zap.String("keyPath", cleanPath))
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	authClient, err := app.Auth(context.Background())
	if err != nil {
		logger.Error("Failed to get Firebase Auth client", zap.Error(err))
		return nil, fmt.Errorf("error getting Firebase Auth client: %w", err)
	}

	logger.Info("Firebase Admin SDK initialized successfully.")
	return newFirebaseService(authClient, logger), nil
}

func newFirebaseService(client claimsClient, logger *zap.Logger) *FirebaseService {
	return &FirebaseService{authClient: client, logger: logger}
}

// UpdateRole sets the role claim, keeping any other custom claims on the account.
func (s *FirebaseService) UpdateRole(ctx context.Context, uid, role string) error {
	record, err := s.authClient.GetUser(ctx, uid)
	if err != nil {
		s.logger.Error("Failed to load Firebase user", zap.Error(err), zap.String("uid", uid))
		return fmt.Errorf("get firebase user %s: %w", uid, err)
	}

	claims := make(map[string]interface{}, len(record.CustomClaims)+1)
	for k, v := range record.CustomClaims {
		claims[k] = v
	}
	claims[RoleMetadataKey] = role

	if err := s.authClient.SetCustomUserClaims(ctx, uid, claims); err != nil {
		s.logger.Error("Failed to set Firebase custom claims", zap.Error(err), zap.String("uid", uid))
		return fmt.Errorf("set firebase custom claims for %s: %w", uid, err)
	}
	s.logger.Debug("Firebase custom claims updated", zap.String("uid", uid), zap.String("role", role))
	return nil
}
