package settings

import (
	_ "embed"
	"fmt"

	"github.com/freelanceflow/freelanceflow-api/money"
	"gopkg.in/yaml.v3"
)

type Tier string

const (
	TierFree  Tier = "free"
	TierBasic Tier = "basic"
	TierPro   Tier = "pro"
)

func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierBasic, TierPro:
		return true
	}

	return false
}

type Plan struct {
	Tier     Tier        `json:"tier"`
	Name     string      `json:"name"`
	Price    money.Money `json:"price"`
	Features []string    `json:"features"`
}

//go:embed plans.yaml
var plansYAML []byte

// planDocument is the on-disk shape of plans.yaml.
type planDocument struct {
	Plans []struct {
		Tier     Tier     `yaml:"tier"`
		Name     string   `yaml:"name"`
		Price    string   `yaml:"price"`
		Features []string `yaml:"features"`
	} `yaml:"plans"`
}

func parsePlans(data []byte) ([]Plan, error) {
	var doc planDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse plans: %w", err)
	}

	plans := make([]Plan, 0, len(doc.Plans))
	for _, p := range doc.Plans {
		if !p.Tier.Valid() {
			return nil, fmt.Errorf("plan %q: unknown tier %q", p.Name, p.Tier)
		}

		price, err := money.NewFromString(p.Price, money.USD)
		if err != nil {
			return nil, fmt.Errorf("plan %q: %w", p.Name, err)
		}

		plans = append(plans, Plan{Tier: p.Tier, Name: p.Name, Price: price, Features: p.Features})
	}

	return plans, nil
}

var catalogue = mustParsePlans(plansYAML)

func mustParsePlans(data []byte) []Plan {
	plans, err := parsePlans(data)
	if err != nil {
		panic(err)
	}
	return plans
}
