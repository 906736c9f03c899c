package database

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS video_analysis_cache (
		video_id     TEXT PRIMARY KEY,
		fingerprint  TEXT NOT NULL DEFAULT '',
		captured_at  TIMESTAMPTZ NOT NULL,
		payload      JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS video_comment_analysis_cache (
		video_id     TEXT PRIMARY KEY,
		fingerprint  TEXT NOT NULL DEFAULT '',
		captured_at  TIMESTAMPTZ NOT NULL,
		payload      JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS channel_niches (
		channel_id   TEXT PRIMARY KEY,
		label        TEXT NOT NULL,
		sub_niche    TEXT NOT NULL DEFAULT '',
		audience     TEXT NOT NULL DEFAULT '',
		confidence   DOUBLE PRECISION NOT NULL DEFAULT 0,
		captured_at  TIMESTAMPTZ NOT NULL
	)`,
}
