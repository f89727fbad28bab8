package settings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"encore.dev/beta/errs"
	"github.com/freelanceflow/freelanceflow-api/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SettingsTestSuite struct {
	suite.Suite

	ctx   context.Context
	clock time.Time
}

func TestSettingsTestSuite(t *testing.T) {
	suite.Run(t, new(SettingsTestSuite))
}

func (s *SettingsTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	store = NewMemStore()
	now = func() time.Time { return s.clock }
}

func ptr(v string) *string { return &v }

func (s *SettingsTestSuite) Test_GetCompanySettings_Defaults() {
	settings, err := GetCompanySettings(s.ctx)
	s.Require().NoError(err)
	s.Equal(defaultCompanyName, settings.Name)
}

func (s *SettingsTestSuite) Test_UpdateCompanySettings_MergesFields() {
	_, err := UpdateCompanySettings(s.ctx, &UpdateCompanyParams{Name: ptr("Studio North"), Phone: ptr("+995 555 000")})
	s.Require().NoError(err)

	settings, err := UpdateCompanySettings(s.ctx, &UpdateCompanyParams{PrimaryColor: ptr("#1a2b3c")})
	s.Require().NoError(err)

	s.Equal("Studio North", settings.Name)
	s.Equal("+995 555 000", settings.Phone)
	s.Equal("#1a2b3c", settings.PrimaryColor)

	stored, err := GetCompanySettings(s.ctx)
	s.Require().NoError(err)
	s.Equal(settings, stored)
}

func (s *SettingsTestSuite) Test_UpdateCompanySettings_Validates() {
	cases := []*UpdateCompanyParams{
		{Name: ptr("S")},
		{Email: ptr("studio")},
		{Website: ptr("studio.example")},
		{PrimaryColor: ptr("blue")},
	}

	for _, params := range cases {
		_, err := UpdateCompanySettings(s.ctx, params)
		s.Equal(errs.InvalidArgument, errs.Code(err))
	}
}

func (s *SettingsTestSuite) Test_Subscription_DefaultsToFree() {
	sub, err := GetSubscription(s.ctx)
	s.Require().NoError(err)
	s.Equal(TierFree, sub.Tier)
	s.False(sub.IsTrialing)
}

func (s *SettingsTestSuite) Test_Trial_LastsFourteenDays() {
	sub, err := StartTrial(s.ctx)
	s.Require().NoError(err)
	s.True(sub.IsTrialing)
	s.Require().NotNil(sub.TrialEndsAt)
	s.Equal(s.clock.AddDate(0, 0, 14), *sub.TrialEndsAt)

	_, err = StartTrial(s.ctx)
	s.Equal(errs.FailedPrecondition, errs.Code(err))

	s.clock = s.clock.AddDate(0, 0, 14)

	sub, err = GetSubscription(s.ctx)
	s.Require().NoError(err)
	s.False(sub.IsTrialing)
	s.Nil(sub.TrialEndsAt)
}

func (s *SettingsTestSuite) Test_EndTrial() {
	_, err := StartTrial(s.ctx)
	s.Require().NoError(err)

	sub, err := EndTrial(s.ctx)
	s.Require().NoError(err)
	s.False(sub.IsTrialing)
}

func (s *SettingsTestSuite) Test_UpdateSubscription_EndsTrial() {
	_, err := StartTrial(s.ctx)
	s.Require().NoError(err)

	sub, err := UpdateSubscription(s.ctx, &UpdateSubscriptionParams{Tier: TierPro})
	s.Require().NoError(err)
	s.Equal(TierPro, sub.Tier)
	s.False(sub.IsTrialing)

	_, err = UpdateSubscription(s.ctx, &UpdateSubscriptionParams{Tier: "enterprise"})
	s.Equal(errs.InvalidArgument, errs.Code(err))

	_, err = StartTrial(s.ctx)
	s.Equal(errs.FailedPrecondition, errs.Code(err))
}

func (s *SettingsTestSuite) Test_UpdateCompanySettings_ConcurrentUpdatesKeepEveryField() {
	updates := []*UpdateCompanyParams{
		{Name: ptr("Studio North")},
		{Phone: ptr("+995 555 000")},
		{Address: ptr("1 Rustaveli Ave")},
		{Email: ptr("hello@studio.test")},
		{TaxNumber: ptr("GE-123")},
		{InvoiceNotes: ptr("Net 30")},
	}

	var wg sync.WaitGroup
	for _, params := range updates {
		wg.Add(1)
		go func(params *UpdateCompanyParams) {
			defer wg.Done()
			_, err := UpdateCompanySettings(s.ctx, params)
			s.NoError(err)
		}(params)
	}
	wg.Wait()

	settings, err := GetCompanySettings(s.ctx)
	s.Require().NoError(err)
	s.Equal("Studio North", settings.Name)
	s.Equal("+995 555 000", settings.Phone)
	s.Equal("1 Rustaveli Ave", settings.Address)
	s.Equal("hello@studio.test", settings.Email)
	s.Equal("GE-123", settings.TaxNumber)
	s.Equal("Net 30", settings.InvoiceNotes)
}

func (s *SettingsTestSuite) Test_StartTrial_ConcurrentStartsOnce() {
	const attempts = 8

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		started int
		refused int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := StartTrial(s.ctx)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				started++
			} else if errs.Code(err) == errs.FailedPrecondition {
				refused++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, started)
	s.Equal(attempts-1, refused)
}

func TestMemStore_MutateFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	doc := &CompanySettings{Name: "Studio"}
	require.NoError(t, store.Mutate(ctx, companyKey, doc, func() error { return nil }))

	failed := &CompanySettings{}
	err := store.Mutate(ctx, companyKey, failed, func() error {
		failed.Name = "Renamed"
		return errors.New("rejected")
	})
	require.Error(t, err)

	stored := &CompanySettings{}
	found, err := store.Load(ctx, companyKey, stored)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Studio", stored.Name)

	missing := &Subscription{Tier: TierFree}
	found, err = store.Load(ctx, subscriptionKey, missing)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, TierFree, missing.Tier)
}

func TestListPlans(t *testing.T) {
	resp, err := ListPlans(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Plans, 3)

	assert.Equal(t, TierFree, resp.Plans[0].Tier)
	assert.True(t, resp.Plans[0].Price.IsZero())
	assert.Equal(t, "$19.99", resp.Plans[2].Price.String())
	assert.Contains(t, resp.Plans[2].Features, "Team collaboration")
}

func TestParsePlans_RejectsBadDocuments(t *testing.T) {
	_, err := parsePlans([]byte("plans:\n  - tier: enterprise\n    name: Enterprise\n    price: \"99\"\n"))
	assert.Error(t, err)

	_, err = parsePlans([]byte("plans:\n  - tier: pro\n    name: Pro\n    price: free\n"))
	assert.Error(t, err)

	plans, err := parsePlans([]byte("plans:\n  - tier: basic\n    name: Basic\n    price: \"5\"\n"))
	require.NoError(t, err)
	assert.Equal(t, money.USD, plans[0].Price.Currency)
}
