// Package attach stores file attachments for stock items. Attachments
// are append-only: every Put creates a new entry, even for a repeated
// filename; the bytes live in the row alongside the metadata.
package attach

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"parttrack/internal/normalize"
)

// ErrNotFound is returned by Get for an unknown attachment id.
var ErrNotFound = errors.New("attachment not found")

// ErrTooLarge is returned by Put when the payload exceeds the
// configured size cap.
var ErrTooLarge = errors.New("attachment exceeds size limit")

// Attachment is the metadata for one stored file.
type Attachment struct {
	ID         string `json:"id"`
	ProjectID  int64  `json:"project_id"`
	Stockcode  string `json:"stockcode"`
	FileName   string `json:"file_name"`
	SizeBytes  int64  `json:"size_bytes"`
	UploadedBy string `json:"uploaded_by"`
	UploadedAt string `json:"uploaded_at"`
}

// Store is the attachment satellite over the shared database.
type Store struct {
	db  *sql.DB
	log *zap.Logger

	// MaxBytes caps the stored payload size; zero means no cap.
	MaxBytes int64
}

func New(db *sql.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, log: logger}
}

// Put stores a new attachment for (project, stockcode) and returns its
// id. The key is canonicalized the same way the record store does it.
func (s *Store) Put(projectID int64, stockcode, fileName string, data []byte, actor string) (string, error) {
	if fileName == "" {
		return "", fmt.Errorf("file name required")
	}
	if s.MaxBytes > 0 && int64(len(data)) > s.MaxBytes {
		return "", fmt.Errorf("%s is %d bytes, limit is %d: %w",
			fileName, len(data), s.MaxBytes, ErrTooLarge)
	}
	id := uuid.NewString()
	code := normalize.Key(stockcode)
	_, err := s.db.Exec(`INSERT INTO attachments
		(id, project_id, stockcode, file_name, file_bytes, size_bytes, uploaded_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, projectID, code, fileName, data, len(data), actor)
	if err != nil {
		return "", err
	}
	s.log.Info("attachment stored",
		zap.String("id", id),
		zap.Int64("project_id", projectID),
		zap.String("stockcode", code),
		zap.String("file_name", fileName),
		zap.Int("size", len(data)))
	return id, nil
}

// List returns the attachment metadata for one stock item, newest
// first. The bytes are not loaded; fetch them with Get.
func (s *Store) List(projectID int64, stockcode string) ([]Attachment, error) {
	rows, err := s.db.Query(`SELECT id, project_id, stockcode, file_name, size_bytes,
		COALESCE(uploaded_by,''), uploaded_at
		FROM attachments WHERE project_id = ? AND stockcode = ?
		ORDER BY uploaded_at DESC, rowid DESC`,
		projectID, normalize.Key(stockcode))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Attachment
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.Stockcode, &a.FileName,
			&a.SizeBytes, &a.UploadedBy, &a.UploadedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Get returns the filename and bytes for an attachment id, or
// ErrNotFound.
func (s *Store) Get(id string) (string, []byte, error) {
	var name string
	var data []byte
	err := s.db.QueryRow("SELECT file_name, file_bytes FROM attachments WHERE id = ?", id).
		Scan(&name, &data)
	if err == sql.ErrNoRows {
		return "", nil, ErrNotFound
	}
	if err != nil {
		return "", nil, err
	}
	return name, data, nil
}
