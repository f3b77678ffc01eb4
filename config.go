package main

import (
	"os"
	"strings"
)

// appConfig carries every environment-driven setting for the service.
type appConfig struct {
	Port string

	ExtractionAPIURL string
	ExtractionAPIKey string

	AccountingAPIURL string
	AccountingAPIKey string

	RedisAddr     string
	RedisPassword string

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	S3Bucket  string
	S3Prefix  string
	S3Region  string
	S3Profile string

	CronSchedule string
}

func loadConfig() appConfig {
	cfg := appConfig{
		Port:             getEnvOrDefault("PORT", "8080"),
		ExtractionAPIURL: os.Getenv("EXTRACTION_API_URL"),
		ExtractionAPIKey: os.Getenv("EXTRACTION_API_KEY"),
		AccountingAPIURL: os.Getenv("ACCOUNTING_API_URL"),
		AccountingAPIKey: os.Getenv("ACCOUNTING_API_KEY"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		KafkaTopic:       getEnvOrDefault("KAFKA_TOPIC", "donation-batch-uploaded"),
		KafkaGroupID:     getEnvOrDefault("KAFKA_GROUP_ID", "donorflow-consumer-group"),
		S3Bucket:         os.Getenv("S3_BUCKET"),
		S3Prefix:         getEnvOrDefault("S3_PREFIX", "incoming"),
		S3Region:         os.Getenv("AWS_REGION"),
		S3Profile:        os.Getenv("AWS_PROFILE"),
		CronSchedule:     os.Getenv("CRON_SCHEDULE"),
	}

	if brokers := os.Getenv("KAFKA_BOOTSTRAP_SERVERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
