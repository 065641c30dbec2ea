package repository

// Queries use ? placeholders and go through db.Rebind so the same text
// serves both pgx and sqlite.
const (
	createVideosTableQuery = `CREATE TABLE IF NOT EXISTS videos (
		id VARCHAR(36) PRIMARY KEY,
		original_name TEXT NOT NULL,
		raw_path TEXT NOT NULL,
		status VARCHAR(16) NOT NULL,
		master_playlist_path TEXT,
		rendition_paths TEXT,
		thumbnail_path TEXT,
		duration DOUBLE PRECISION,
		source_width INTEGER,
		source_height INTEGER,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`
	createStatusIndexQuery = `CREATE INDEX IF NOT EXISTS idx_videos_status ON videos (status)`

	createVideoQuery = `INSERT INTO videos (id, original_name, raw_path, status, created_at, updated_at)
					VALUES (?, ?, ?, ?, ?, ?)`
	getVideoByIDQuery = `SELECT id, original_name, raw_path, status, master_playlist_path, rendition_paths,
					thumbnail_path, duration, source_width, source_height, created_at, updated_at
					FROM videos WHERE id = ?`
	listVideosByStatusQuery = `SELECT id, original_name, raw_path, status, master_playlist_path, rendition_paths,
					thumbnail_path, duration, source_width, source_height, created_at, updated_at
					FROM videos WHERE status = ? ORDER BY created_at`
	markReadyQuery = `UPDATE videos
					SET status = ?, master_playlist_path = ?, rendition_paths = ?, thumbnail_path = ?,
						duration = ?, source_width = ?, source_height = ?, updated_at = ?
					WHERE id = ? AND status = ?`
	markFailedQuery  = `UPDATE videos SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	deleteVideoQuery = `DELETE FROM videos WHERE id = ?`
)
