// Команда admintoken выпускает access токен администратора для локальной разработки.
//
//	go run ./cmd/admintoken -user 6f1c... -ttl 1h
package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/telehealth-backend/internal/config"
	"github.com/ignatzorin/telehealth-backend/internal/logger"
	"github.com/ignatzorin/telehealth-backend/internal/models"
	"github.com/ignatzorin/telehealth-backend/internal/service"
)

func main() {
	userFlag := flag.String("user", "", "UUID администратора, по умолчанию случайный")
	roleFlag := flag.String("role", models.RoleAdmin, "роль в токене")
	ttlFlag := flag.Duration("ttl", time.Hour, "время жизни токена")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("admintoken: ошибка загрузки конфигурации: %v", err)
	}
	if cfg.Env == "production" {
		logger.Log.Fatal("admintoken: выпуск токенов в production запрещён")
	}

	if !models.IsKnownRole(*roleFlag) {
		logger.Log.Fatalf("admintoken: неизвестная роль %q", *roleFlag)
	}

	userID := uuid.New()
	if *userFlag != "" {
		if userID, err = uuid.Parse(*userFlag); err != nil {
			logger.Log.Fatalf("admintoken: некорректный UUID: %v", err)
		}
	}

	token, exp, err := service.NewTokenManager(cfg.JWTSecret, *ttlFlag).GenerateAccess(userID, *roleFlag)
	if err != nil {
		logger.Log.Fatalf("admintoken: не удалось выпустить токен: %v", err)
	}

	logger.Log.WithField("user_id", userID).WithField("expires_at", exp).Info("Токен выпущен")
	fmt.Println(token)
}
