package database

import (
	"fmt"
	"log"

	"stem_quest_backend/internal/config"
	"stem_quest_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig, migrate bool) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Info),
		TranslateError: true,
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if !migrate {
		return db, nil
	}

	err = db.AutoMigrate(
		&model.Profile{},
		&model.UserProgress{},
		&model.Badge{},
		&model.ModuleCompletion{},
		&model.GameModule{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// 默认的游戏模块目录
	var count int64
	db.Model(&model.GameModule{}).Count(&count)
	if count == 0 {
		defaultModules := []model.GameModule{
			{ModuleID: "photosynthesis_6", Subject: "science", Class: 6, Title: "Photosynthesis Lab", TitleOdia: "ଫଟୋସିନ୍ଥେସିସ୍"},
			{ModuleID: "circuit_builder_6", Subject: "engineering", Class: 6, Title: "Circuit Builder", TitleOdia: "ସର୍କିଟ୍ ନିର୍ମାତା"},
			{ModuleID: "shape_builder_6", Subject: "math", Class: 6, Title: "Shape Builder", TitleOdia: "ଆକୃତି ନିର୍ମାତା"},
			{ModuleID: "number_adventure_6", Subject: "math", Class: 6, Title: "Number Adventure", TitleOdia: "ସଂଖ୍ୟା ଦୁଃସାହସିକ"},
			{ModuleID: "probability_kingdom_6", Subject: "math", Class: 6, Title: "Probability Kingdom", TitleOdia: "ସମ୍ଭାବନା ରାଜ୍ୟ"},
			{ModuleID: "logic_gates_6", Subject: "technology", Class: 6, Title: "Logic Gate Simulator", TitleOdia: "ଲଜିକ୍ ଗେଟ୍"},
			{ModuleID: "sql_dungeon_6", Subject: "technology", Class: 6, Title: "SQL Data Dungeon", TitleOdia: "SQL ଡାଟା ଡଙ୍ଗିଅନ୍"},
			{ModuleID: "organic_reactions_6", Subject: "science", Class: 6, Title: "Organic Reaction Builder", TitleOdia: "ଜୈବିକ ପ୍ରତିକ୍ରିୟା"},
		}
		for _, m := range defaultModules {
			db.Create(&m)
		}
	}

	return db, nil
}
