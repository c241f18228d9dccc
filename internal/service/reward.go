package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/templui/goalkeep/internal/model"
	"github.com/templui/goalkeep/internal/storage"
)

// RewardIssuer performs the actual reward issuance once MintReward has
// recorded the goal's reward as minted.
type RewardIssuer interface {
	IssueReward(ctx context.Context, goal *model.Goal) error
}

// LogRewardIssuer only records the issuance in the log.
type LogRewardIssuer struct{}

func (LogRewardIssuer) IssueReward(ctx context.Context, goal *model.Goal) error {
	slog.InfoContext(ctx, "reward issued", "goal_id", goal.ID, "owner", goal.Owner)
	return nil
}

// CertificateIssuer writes a JSON reward certificate to object storage.
type CertificateIssuer struct {
	storage storage.Storage
}

func NewCertificateIssuer(storage storage.Storage) *CertificateIssuer {
	return &CertificateIssuer{storage: storage}
}

func CertificateKey(id model.GoalID) string {
	return fmt.Sprintf("rewards/goal-%d.json", id)
}

func (i *CertificateIssuer) IssueReward(ctx context.Context, goal *model.Goal) error {
	cert := model.RewardCertificate{
		ID:       uuid.New().String(),
		GoalID:   goal.ID,
		Owner:    goal.Owner,
		Title:    goal.Title,
		IssuedAt: time.Now().UTC(),
	}
	if goal.VerificationTime != nil {
		cert.VerifiedAt = *goal.VerificationTime
	}

	body, err := json.Marshal(cert)
	if err != nil {
		return fmt.Errorf("failed to encode certificate: %w", err)
	}

	key := CertificateKey(goal.ID)
	err = i.storage.Save(ctx, key, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to store certificate: %w", err)
	}

	url, err := i.storage.PresignedURL(ctx, key)
	if err != nil {
		// The certificate is already stored, so the issuance stands without a link.
		slog.WarnContext(ctx, "failed to presign certificate URL", "goal_id", goal.ID, "error", err)
	}

	slog.InfoContext(ctx, "reward certificate issued",
		"goal_id", goal.ID,
		"owner", goal.Owner,
		"certificate_id", cert.ID,
		"url", url,
	)
	return nil
}
