package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/learnhub/learnhub-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuizService grades quiz attempts and feeds passing attempts into the
// lesson-completion ledger.
type QuizService struct {
	db       *gorm.DB
	progress *ProgressService
}

// NewQuizService creates a new quiz service
func NewQuizService(db *gorm.DB, progress *ProgressService) *QuizService {
	return &QuizService{db: db, progress: progress}
}

// SubmitAttemptResult is returned to the student after grading. Correct
// answers are only ever revealed here, after the attempt is persisted.
type SubmitAttemptResult struct {
	Attempt        *model.QuizAttempt `json:"attempt"`
	CorrectCount   int                `json:"correct_count"`
	TotalQuestions int                `json:"total_questions"`
	Passed         bool               `json:"passed"`
}

// SubmitAttempt grades the submitted answers against the stored answer key
// and persists one QuizAttempt. Scores are always computed server-side;
// unanswered questions count as incorrect. A passing attempt completes the
// quiz's owning lesson as a side effect.
func (s *QuizService) SubmitAttempt(ctx context.Context, studentID, quizID uint, answers map[string]string) (*SubmitAttemptResult, error) {
	quiz, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	courseID := quiz.Lesson.Module.CourseID
	if err := s.progress.EnsureLessonAccessible(ctx, studentID, &quiz.Lesson, courseID); err != nil {
		return nil, err
	}

	correct := 0
	for _, q := range quiz.Questions {
		submitted, ok := answers[strconv.FormatUint(uint64(q.ID), 10)]
		if !ok {
			continue
		}
		if answerMatches(submitted, q.CorrectAnswer) {
			correct++
		}
	}

	total := len(quiz.Questions)
	// A quiz with no questions is degenerate content, not an error: the
	// score is a defined 0.
	score := 0.0
	if total > 0 {
		score = float64(correct) / float64(total) * 100
	}
	passed := score >= quiz.PassingScore

	attempt := &model.QuizAttempt{
		QuizID:    quizID,
		StudentID: studentID,
		Score:     score,
		Passed:    passed,
		Answers:   answersToJSON(answers),
	}
	if err := s.db.WithContext(ctx).Create(attempt).Error; err != nil {
		return nil, err
	}

	// Passing the quiz is itself a completion event for the owning lesson.
	if passed {
		if _, err := s.progress.CompleteLesson(ctx, studentID, quiz.LessonID); err != nil {
			return nil, fmt.Errorf("recording lesson completion: %w", err)
		}
	}

	return &SubmitAttemptResult{
		Attempt:        attempt,
		CorrectCount:   correct,
		TotalQuestions: total,
		Passed:         passed,
	}, nil
}

// BestAttempt summarizes a student's history on one quiz: best is by score,
// and one historical pass is sufficient even if later attempts fail.
type BestAttempt struct {
	BestScore float64 `json:"best_score"`
	Passed    bool    `json:"passed"`
	Attempts  int     `json:"attempts"`
}

// BestAttemptFor computes the best-attempt summary for (student, quiz).
func (s *QuizService) BestAttemptFor(ctx context.Context, studentID, quizID uint) (*BestAttempt, error) {
	var attempts []model.QuizAttempt
	if err := s.db.WithContext(ctx).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return summarizeAttempts(attempts), nil
}

// StudentQuizView is what a student sees before submitting: questions with
// the answer key stripped (the model never serializes CorrectAnswer), plus
// their attempt history.
type StudentQuizView struct {
	Quiz     *model.Quiz         `json:"quiz"`
	Attempts []model.QuizAttempt `json:"attempts"`
	Best     *BestAttempt        `json:"best"`
}

// QuizForStudent returns the quiz with questions in order, prior attempts
// and the best-attempt summary. Access follows lesson gating rules.
func (s *QuizService) QuizForStudent(ctx context.Context, studentID, quizID uint) (*StudentQuizView, error) {
	quiz, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	courseID := quiz.Lesson.Module.CourseID
	if err := s.progress.EnsureLessonAccessible(ctx, studentID, &quiz.Lesson, courseID); err != nil {
		return nil, err
	}

	var attempts []model.QuizAttempt
	if err := s.db.WithContext(ctx).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		Order("created_at DESC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}

	return &StudentQuizView{
		Quiz:     quiz,
		Attempts: attempts,
		Best:     summarizeAttempts(attempts),
	}, nil
}

func (s *QuizService) loadQuiz(ctx context.Context, quizID uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := s.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("questions.\"order\" ASC") }).
		Preload("Lesson.Module").
		First(&quiz, quizID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("quiz: %w", ErrNotFound)
		}
		return nil, err
	}
	return &quiz, nil
}

// answerMatches compares a submitted answer to the stored key. Comparison
// is whitespace-trimmed and case-insensitive.
func answerMatches(submitted, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(correct))
}

func answersToJSON(answers map[string]string) datatypes.JSONMap {
	m := make(datatypes.JSONMap, len(answers))
	for k, v := range answers {
		m[k] = v
	}
	return m
}

func summarizeAttempts(attempts []model.QuizAttempt) *BestAttempt {
	best := &BestAttempt{Attempts: len(attempts)}
	for _, a := range attempts {
		if a.Score > best.BestScore {
			best.BestScore = a.Score
		}
		if a.Passed {
			best.Passed = true
		}
	}
	return best
}
