package answercache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/quizsentry/quizsentry/src/types"
)

// answerRow is the quiz_answers table shape.
type answerRow struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	Question   string    `gorm:"column:question;size:512;uniqueIndex:idx_answers_question"`
	Letter     string    `gorm:"column:answer_letter;size:1"`
	OptionText string    `gorm:"column:answer_text;type:text"`
	SavedAt    time.Time `gorm:"column:saved_at"`
	UsageCount int       `gorm:"column:usage_count"`
}

// TableName implements gorm's tabler interface.
func (answerRow) TableName() string {
	return "quiz_answers"
}

// MySQLStore persists answers row-per-question. Usage counters accumulate in
// memory between Puts, same contract as the other backends.
type MySQLStore struct {
	db  *gorm.DB
	log *zap.SugaredLogger

	mu      sync.Mutex
	pending map[string]int
}

func OpenMySQLStore(dsn string, logger *zap.SugaredLogger) (*MySQLStore, error) {
	db, err := connectMySQL(dsn)
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	if err := db.AutoMigrate(&answerRow{}); err != nil {
		return nil, fmt.Errorf("migrate quiz_answers: %w", err)
	}
	return &MySQLStore{db: db, log: logger, pending: make(map[string]int)}, nil
}

func (s *MySQLStore) Get(ctx context.Context, question string) (Entry, bool, error) {
	key := Normalize(question)

	var row answerRow
	err := s.db.WithContext(ctx).Where("question = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache get: %w", err)
	}

	letter := types.Letter(row.Letter)
	if !letter.Valid() {
		return Entry{}, false, nil
	}

	s.mu.Lock()
	s.pending[key]++
	usage := row.UsageCount + s.pending[key]
	s.mu.Unlock()

	return Entry{
		Letter:     letter,
		OptionText: row.OptionText,
		SavedAt:    row.SavedAt,
		UsageCount: usage,
	}, true, nil
}

func (s *MySQLStore) Put(ctx context.Context, question string, letter types.Letter, optionText string) error {
	if !letter.Valid() {
		return fmt.Errorf("refusing to cache invalid letter %q", letter)
	}
	key := Normalize(question)

	usage := 1
	var row answerRow
	if err := s.db.WithContext(ctx).Where("question = ?", key).First(&row).Error; err == nil {
		usage = row.UsageCount
	}
	s.mu.Lock()
	usage += s.pending[key]
	delete(s.pending, key)
	s.mu.Unlock()

	record := answerRow{
		Question:   key,
		Letter:     string(letter),
		OptionText: optionText,
		SavedAt:    time.Now(),
		UsageCount: usage,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "question"}},
		DoUpdates: clause.AssignmentColumns([]string{"answer_letter", "answer_text", "saved_at", "usage_count"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Close flushes pending usage increments.
func (s *MySQLStore) Close() error {
	s.mu.Lock()
	pending := s.pending
	s.pending = make(map[string]int)
	s.mu.Unlock()

	for key, n := range pending {
		err := s.db.Model(&answerRow{}).
			Where("question = ?", key).
			UpdateColumn("usage_count", gorm.Expr("usage_count + ?", n)).Error
		if err != nil {
			s.log.Warnw("flush usage count failed", "question", key, "err", err)
		}
	}
	return nil
}

// connectMySQL opens a gorm DB with sane DSN defaults.
func connectMySQL(dsn string) (*gorm.DB, error) {
	dsn = ensureParam(dsn, "parseTime", "true")
	if !strings.Contains(dsn, "charset=") {
		dsn = ensureParam(dsn, "charset", "utf8mb4")
		dsn = ensureParam(dsn, "collation", "utf8mb4_unicode_ci")
	}

	gl := gormlogger.New(
		log.New(log.Writer(), "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	return gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gl})
}

func ensureParam(dsn, key, val string) string {
	if strings.Contains(dsn, key+"=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + key + "=" + val
}
