package settings

import (
	"context"
	"time"

	"encore.dev/rlog"
	"github.com/freelanceflow/freelanceflow-api/errors"
)

const (
	subscriptionKey = "subscription"
	trialLength     = 14 * 24 * time.Hour
)

type Subscription struct {
	Tier               Tier       `json:"tier"`
	IsTrialing         bool       `json:"is_trialing"`
	TrialEndsAt        *time.Time `json:"trial_ends_at,omitempty"`
	SubscriptionEndsAt *time.Time `json:"subscription_ends_at,omitempty"`
}

type UpdateSubscriptionParams struct {
	Tier Tier `json:"tier"`
}

type ListPlansResponse struct {
	Plans []Plan `json:"plans"`
}

func (p *UpdateSubscriptionParams) Validate() error {
	if !p.Tier.Valid() {
		return errors.BadRequestError("invalid tier")
	}

	return nil
}

// settle ends a trial whose end date has passed.
func (sub *Subscription) settle(at time.Time) {
	if sub.IsTrialing && sub.TrialEndsAt != nil && !at.Before(*sub.TrialEndsAt) {
		sub.IsTrialing = false
		sub.TrialEndsAt = nil
	}
}

func loadSubscription(ctx context.Context) (*Subscription, error) {
	sub := &Subscription{Tier: TierFree}
	if _, err := store.Load(ctx, subscriptionKey, sub); err != nil {
		return nil, errors.SafeInternalError(err, "failed to load subscription")
	}

	sub.settle(now())
	return sub, nil
}

// mutateSubscription applies fn to the settled subscription and stores the result.
func mutateSubscription(ctx context.Context, fn func(sub *Subscription) error) (*Subscription, error) {
	sub := &Subscription{Tier: TierFree}
	err := store.Mutate(ctx, subscriptionKey, sub, func() error {
		sub.settle(now())
		return fn(sub)
	})
	if err != nil {
		if errors.IsAPIError(err) {
			return nil, err
		}
		return nil, errors.SafeInternalError(err, "failed to save subscription")
	}

	return sub, nil
}

// ListPlans returns the plan catalogue.
//
//encore:api public method=GET path=/plans
func ListPlans(ctx context.Context) (*ListPlansResponse, error) {
	return &ListPlansResponse{Plans: catalogue}, nil
}

// GetSubscription returns the current subscription.
//
//encore:api public method=GET path=/settings/subscription
func GetSubscription(ctx context.Context) (*Subscription, error) {
	return loadSubscription(ctx)
}

// UpdateSubscription switches to another tier. Subscribing to a paid tier ends a running trial.
//
//encore:api public method=PUT path=/settings/subscription
func UpdateSubscription(ctx context.Context, params *UpdateSubscriptionParams) (*Subscription, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	sub, err := mutateSubscription(ctx, func(sub *Subscription) error {
		sub.Tier = params.Tier
		if params.Tier != TierFree {
			sub.IsTrialing = false
			sub.TrialEndsAt = nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rlog.Info("updated subscription", "tier", sub.Tier)
	return sub, nil
}

// StartTrial starts the free trial. Only a free account that is not already
// trialing can start one.
//
//encore:api public method=POST path=/settings/subscription/trial
func StartTrial(ctx context.Context) (*Subscription, error) {
	sub, err := mutateSubscription(ctx, func(sub *Subscription) error {
		if sub.Tier != TierFree || sub.IsTrialing {
			return errors.PreconditionError("trial is only available on the free tier")
		}

		ends := now().Add(trialLength)
		sub.IsTrialing = true
		sub.TrialEndsAt = &ends
		return nil
	})
	if err != nil {
		return nil, err
	}

	rlog.Info("started trial", "ends_at", *sub.TrialEndsAt)
	return sub, nil
}

// EndTrial stops a running trial.
//
//encore:api public method=DELETE path=/settings/subscription/trial
func EndTrial(ctx context.Context) (*Subscription, error) {
	return mutateSubscription(ctx, func(sub *Subscription) error {
		sub.IsTrialing = false
		sub.TrialEndsAt = nil
		return nil
	})
}
