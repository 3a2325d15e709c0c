package db

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/luisquicidev/easydiet-backend/internal/domain"
)

//go:embed met_activities.yaml
var metSeedYAML []byte

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// MetSeed returns the bundled MET reference activities.
func MetSeed() ([]types.MetActivity, error) {
	var doc struct {
		Activities []types.MetActivity `yaml:"activities"`
	}
	if err := yaml.Unmarshal(metSeedYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse met seed: %w", err)
	}
	return doc.Activities, nil
}

// SeedMetActivities upserts the MET reference table and returns the row count written.
func SeedMetActivities(db *gorm.DB) (int, error) {
	rows, err := MetSeed()
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"description", "category", "met_value"}),
	}).Create(&rows).Error
	if err != nil {
		return 0, fmt.Errorf("seed met activities: %w", err)
	}
	return len(rows), nil
}
