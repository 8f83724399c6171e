package database

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/learnhub/learnhub-api/model"
	"github.com/learnhub/learnhub-api/utils/auth"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// RunSeeds migrates the schema and runs all seed functions
func RunSeeds(db *gorm.DB) error {
	if err := Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return NewSeeder(db).SeedAll()
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("🌱 Starting database seeding...")

	// Run seeds in order (respecting foreign key constraints)
	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedDemoUsers(); err != nil {
		return fmt.Errorf("failed to seed demo users: %w", err)
	}

	if err := s.SeedDemoCourse(); err != nil {
		return fmt.Errorf("failed to seed demo course: %w", err)
	}

	log.Println("✅ Database seeding completed successfully!")
	return nil
}

// SeedAdminUser creates the default admin user
func (s *Seeder) SeedAdminUser() error {
	// Check if admin already exists
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Admin user already exists, skipping...")
		return nil
	}

	// Get admin credentials from environment variables
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		log.Println("⚠️  ADMIN_EMAIL and ADMIN_PASSWORD environment variables not set, skipping admin user creation")
		return nil
	}

	// Hash password
	passwordHash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.User{
		Email:        adminEmail,
		PasswordHash: passwordHash,
		Name:         "System Administrator",
		Role:         model.RoleAdmin,
		TokenVersion: 0,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Created admin user: %s\n", admin.Email)
	return nil
}

// SeedDemoUsers creates a demo instructor and a couple of students
func (s *Seeder) SeedDemoUsers() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role IN ?", []string{model.RoleInstructor, model.RoleStudent}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Demo users already exist, skipping...")
		return nil
	}

	passwordHash, err := auth.HashPassword("ChangeMe123!")
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	users := []model.User{
		{
			Email:        "instructor@learnhub.dev",
			PasswordHash: passwordHash,
			Name:         "Ada Instructor",
			Role:         model.RoleInstructor,
			Bio:          "Teaches backend engineering and distributed systems.",
		},
		{
			Email:        "student1@learnhub.dev",
			PasswordHash: passwordHash,
			Name:         "Sam Student",
			Role:         model.RoleStudent,
		},
		{
			Email:        "student2@learnhub.dev",
			PasswordHash: passwordHash,
			Name:         "Riya Student",
			Role:         model.RoleStudent,
		},
	}

	if err := s.db.Create(&users).Error; err != nil {
		return err
	}

	log.Printf("✅ Created %d demo users\n", len(users))
	return nil
}

// SeedDemoCourse creates a published demo course with ordered modules,
// lessons, a quiz and an assignment
func (s *Seeder) SeedDemoCourse() error {
	var count int64
	if err := s.db.Model(&model.Course{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Courses already exist, skipping...")
		return nil
	}

	var instructor model.User
	err := s.db.Where("role = ?", model.RoleInstructor).First(&instructor).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			log.Println("⚠️  No instructor found, skipping demo course creation")
			return nil
		}
		return err
	}

	course := model.Course{
		InstructorID: instructor.ID,
		Title:        "Go Fundamentals",
		Description:  "A hands-on introduction to the Go programming language.",
		Category:     "Programming",
		Published:    true,
		Modules: []model.Module{
			{
				Title: "Getting Started",
				Order: 1,
				Lessons: []model.Lesson{
					{Title: "Why Go?", Order: 1, IsPreview: true, Duration: 10,
						Content: "Go's history, design goals, and where it shines."},
					{Title: "Installing the Toolchain", Order: 2, Duration: 15,
						Content: "Installing Go, setting up your editor, and running your first program."},
				},
			},
			{
				Title: "Language Basics",
				Order: 2,
				Lessons: []model.Lesson{
					{Title: "Types and Variables", Order: 1, Duration: 20,
						Content: "Basic types, declarations, and zero values."},
					{Title: "Functions and Errors", Order: 2, Duration: 25,
						Content: "Multiple returns, error values, and idiomatic error handling."},
				},
			},
		},
	}

	if err := s.db.Create(&course).Error; err != nil {
		return err
	}

	// Count lessons into the cached counters
	err = s.db.Model(&model.Course{}).Where("id = ?", course.ID).
		Updates(map[string]interface{}{"total_modules": 2, "total_lessons": 4}).Error
	if err != nil {
		return err
	}

	// Attach a quiz to the last lesson of the last module
	lastLesson := course.Modules[1].Lessons[1]
	quiz := model.Quiz{
		LessonID:     lastLesson.ID,
		Title:        "Language Basics Check",
		PassingScore: 70,
		Questions: []model.Question{
			{Text: "Which keyword declares a variable with inferred type?",
				Options:       mustJSON([]string{"var", ":=", "let", "def"}),
				CorrectAnswer: ":=", Order: 1},
			{Text: "What is the zero value of an int?",
				Options:       mustJSON([]string{"nil", "0", "-1", "undefined"}),
				CorrectAnswer: "0", Order: 2},
		},
	}
	if err := s.db.Create(&quiz).Error; err != nil {
		return err
	}

	assignment := model.Assignment{
		LessonID:     course.Modules[0].Lessons[1].ID,
		Title:        "Hello, Web",
		Instructions: "Write a small HTTP server that returns your name, and paste the code.",
	}
	if err := s.db.Create(&assignment).Error; err != nil {
		return err
	}

	log.Printf("✅ Created demo course: %s\n", course.Title)
	return nil
}

func mustJSON(v interface{}) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return datatypes.JSON(raw)
}
