package services

import (
	"context"
	"strconv"
	"testing"

	"github.com/learnhub/learnhub-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quizFixture attaches a four-question quiz to the first lesson of the
// standard course so attempts are never blocked by gating.
func quizFixture(t *testing.T, f *fixture, passingScore float64) model.Quiz {
	t.Helper()
	quiz := model.Quiz{
		LessonID:     f.lessons[0].ID,
		Title:        "Checkpoint",
		PassingScore: passingScore,
		Questions: []model.Question{
			{Order: 1, Text: "q1", CorrectAnswer: "a"},
			{Order: 2, Text: "q2", CorrectAnswer: "b"},
			{Order: 3, Text: "q3", CorrectAnswer: "c"},
			{Order: 4, Text: "q4", CorrectAnswer: "d"},
		},
	}
	require.NoError(t, f.db.Create(&quiz).Error)
	return quiz
}

func answersFor(quiz model.Quiz, values ...string) map[string]string {
	answers := make(map[string]string, len(values))
	for i, v := range values {
		if v == "" {
			continue
		}
		answers[strconv.FormatUint(uint64(quiz.Questions[i].ID), 10)] = v
	}
	return answers
}

func TestSubmitAttemptScoresThreeOfFour(t *testing.T) {
	f := newFixture(t)
	progress := NewProgressService(f.db)
	svc := NewQuizService(f.db, progress)
	enroll(t, f.db, f.student.ID, f.course.ID)
	quiz := quizFixture(t, f, 70)

	result, err := svc.SubmitAttempt(context.Background(), f.student.ID, quiz.ID,
		answersFor(quiz, "a", "b", "c", "wrong"))
	require.NoError(t, err)

	assert.Equal(t, 3, result.CorrectCount)
	assert.Equal(t, 4, result.TotalQuestions)
	within(t, 75, result.Attempt.Score)
	assert.True(t, result.Passed, "75 >= passing score 70")
}

func TestSubmitAttemptUnansweredCountsIncorrect(t *testing.T) {
	f := newFixture(t)
	progress := NewProgressService(f.db)
	svc := NewQuizService(f.db, progress)
	enroll(t, f.db, f.student.ID, f.course.ID)
	quiz := quizFixture(t, f, 70)

	// Two answered, two omitted entirely.
	result, err := svc.SubmitAttempt(context.Background(), f.student.ID, quiz.ID,
		answersFor(quiz, "a", "b", "", ""))
	require.NoError(t, err)
	within(t, 50, result.Attempt.Score)
	assert.False(t, result.Passed)
}

func TestSubmitAttemptAnswerMatchingIsForgiving(t *testing.T) {
	f := newFixture(t)
	progress := NewProgressService(f.db)
	svc := NewQuizService(f.db, progress)
	enroll(t, f.db, f.student.ID, f.course.ID)
	quiz := quizFixture(t, f, 70)

	result, err := svc.SubmitAttempt(context.Background(), f.student.ID, quiz.ID,
		answersFor(quiz, "  A ", "B", "c", "D"))
	require.NoError(t, err)
	assert.Equal(t, 4, result.CorrectCount)
}

func TestSubmitAttemptZeroQuestionsScoresZero(t *testing.T) {
	f := newFixture(t)
	progress := NewProgressService(f.db)
	svc := NewQuizService(f.db, progress)
	enroll(t, f.db, f.student.ID, f.course.ID)

	quiz := model.Quiz{LessonID: f.lessons[0].ID, Title: "Empty", PassingScore: 70}
	require.NoError(t, f.db.Create(&quiz).Error)

	result, err := svc.SubmitAttempt(context.Background(), f.student.ID, quiz.ID, map[string]string{})
	require.NoError(t, err)
	within(t, 0, result.Attempt.Score)
	assert.False(t, result.Passed)
}

func TestSubmitAttemptPassingCompletesLesson(t *testing.T) {
	f := newFixture(t)
	progress := NewProgressService(f.db)
	svc := NewQuizService(f.db, progress)
	enroll(t, f.db, f.student.ID, f.course.ID)
	quiz := quizFixture(t, f, 70)

	_, err := svc.SubmitAttempt(context.Background(), f.student.ID, quiz.ID,
		answersFor(quiz, "a", "b", "c", "d"))
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&model.LessonProgress{}).
		Where("student_id = ? AND lesson_id = ?", f.student.ID, quiz.LessonID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count, "passing the quiz completes the owning lesson")
	within(t, 25, f.reloadEnrollment(t).Progress)
}

func TestSubmitAttemptFailingDoesNotCompleteLesson(t *testing.T) {
	f := newFixture(t)
	progress := NewProgressService(f.db)
	svc := NewQuizService(f.db, progress)
	enroll(t, f.db, f.student.ID, f.course.ID)
	quiz := quizFixture(t, f, 70)

	_, err := svc.SubmitAttempt(context.Background(), f.student.ID, quiz.ID,
		answersFor(quiz, "a", "x", "x", "x"))
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&model.LessonProgress{}).
		Where("student_id = ?", f.student.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSubmitAttemptRequiresEnrollment(t *testing.T) {
	f := newFixture(t)
	progress := NewProgressService(f.db)
	svc := NewQuizService(f.db, progress)
	quiz := quizFixture(t, f, 70)

	_, err := svc.SubmitAttempt(context.Background(), f.student.ID, quiz.ID, map[string]string{})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestSubmitAttemptRespectsLessonGating(t *testing.T) {
	f := newFixture(t)
	progress := NewProgressService(f.db)
	svc := NewQuizService(f.db, progress)
	enroll(t, f.db, f.student.ID, f.course.ID)

	// Quiz on the second lesson, which is locked until the first is done.
	quiz := model.Quiz{
		LessonID:     f.lessons[1].ID,
		Title:        "Locked",
		PassingScore: 70,
		Questions:    []model.Question{{Order: 1, Text: "q", CorrectAnswer: "a"}},
	}
	require.NoError(t, f.db.Create(&quiz).Error)

	_, err := svc.SubmitAttempt(context.Background(), f.student.ID, quiz.ID, map[string]string{})
	require.Error(t, err)
	assert.True(t, IsInvalidState(err))
}

func TestBestAttemptTracksMaxScoreAndAnyPass(t *testing.T) {
	f := newFixture(t)
	progress := NewProgressService(f.db)
	svc := NewQuizService(f.db, progress)
	enroll(t, f.db, f.student.ID, f.course.ID)
	quiz := quizFixture(t, f, 75)

	submissions := [][]string{
		{"a", "b", "x", "x"},      // 50, fail
		{"a", "b", "c", "wrong"},  // 75, pass
		{"a", "x", "x", "x"},      // 25, fail again afterwards
	}
	for _, answers := range submissions {
		_, err := svc.SubmitAttempt(context.Background(), f.student.ID, quiz.ID,
			answersFor(quiz, answers...))
		require.NoError(t, err)
	}

	best, err := svc.BestAttemptFor(context.Background(), f.student.ID, quiz.ID)
	require.NoError(t, err)
	within(t, 75, best.BestScore)
	assert.True(t, best.Passed, "one historical pass is sufficient")
	assert.Equal(t, 3, best.Attempts)
}

func TestQuizForStudentIncludesHistory(t *testing.T) {
	f := newFixture(t)
	progress := NewProgressService(f.db)
	svc := NewQuizService(f.db, progress)
	enroll(t, f.db, f.student.ID, f.course.ID)
	quiz := quizFixture(t, f, 70)

	_, err := svc.SubmitAttempt(context.Background(), f.student.ID, quiz.ID,
		answersFor(quiz, "a", "b", "c", "d"))
	require.NoError(t, err)

	view, err := svc.QuizForStudent(context.Background(), f.student.ID, quiz.ID)
	require.NoError(t, err)
	require.Len(t, view.Attempts, 1)
	assert.True(t, view.Best.Passed)
	require.Len(t, view.Quiz.Questions, 4)
	assert.Equal(t, "q1", view.Quiz.Questions[0].Text)
}

func TestQuizForStudentUnknownQuiz(t *testing.T) {
	f := newFixture(t)
	svc := NewQuizService(f.db, NewProgressService(f.db))

	_, err := svc.QuizForStudent(context.Background(), f.student.ID, 404)
	require.ErrorIs(t, err, ErrNotFound)
}
