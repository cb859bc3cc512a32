package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/models"
)

type tagFixture struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type ingredientFixture struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	tagsPath := flag.String("tags", "data/tags.json", "path to the tag fixture")
	ingredientsPath := flag.String("ingredients", "data/ingredients.json", "path to the ingredient fixture")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := seedTags(db, *tagsPath); err != nil {
		log.Fatal().Err(err).Str("path", *tagsPath).Msg("failed to seed tags")
	}
	if err := seedIngredients(db, *ingredientsPath); err != nil {
		log.Fatal().Err(err).Str("path", *ingredientsPath).Msg("failed to seed ingredients")
	}
	log.Info().Msg("fixtures loaded")
}

// seedTags bulk-inserts tags, skipping names already present.
func seedTags(db *gorm.DB, path string) error {
	var fixtures []tagFixture
	if err := loadFixture(path, &fixtures); err != nil {
		return err
	}

	tags := make([]models.Tag, 0, len(fixtures))
	for _, f := range fixtures {
		tags = append(tags, models.Tag{Name: f.Name, Slug: f.Slug})
	}
	if len(tags) == 0 {
		return nil
	}

	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&tags)
	if result.Error != nil {
		return result.Error
	}
	log.Info().Int64("inserted", result.RowsAffected).Int("total", len(tags)).Msg("tags seeded")
	return nil
}

func seedIngredients(db *gorm.DB, path string) error {
	var fixtures []ingredientFixture
	if err := loadFixture(path, &fixtures); err != nil {
		return err
	}

	ingredients := make([]models.Ingredient, 0, len(fixtures))
	for _, f := range fixtures {
		ingredients = append(ingredients, models.Ingredient{Name: f.Name, MeasurementUnit: f.MeasurementUnit})
	}
	if len(ingredients) == 0 {
		return nil
	}

	// Large fixture files go in batches to keep statements bounded.
	result := db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&ingredients, 500)
	if result.Error != nil {
		return result.Error
	}
	log.Info().Int64("inserted", result.RowsAffected).Int("total", len(ingredients)).Msg("ingredients seeded")
	return nil
}

func loadFixture(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
