package main

import (
	"context"
	"errors"
	"flag"
	"time"

	"github.com/learnnav/learning-navigator/internal/config"
	"github.com/learnnav/learning-navigator/internal/database"
	"github.com/learnnav/learning-navigator/internal/logger"
	"github.com/learnnav/learning-navigator/internal/service"
)

var subjectNames = []string{"ENGLISH", "MATHEMATICS", "PHYSICS", "CHEMISTRY", "HISTORY"}

var studentNames = []string{
	"Akash Verma", "Priya Sharma", "Rahul Nair", "Sneha Iyer", "Vikram Rao",
	"Ananya Gupta", "Rohan Mehta", "Kavya Reddy", "Arjun Singh", "Meera Pillai",
	"Nikhil Joshi", "Isha Kapoor", "Siddharth Das", "Pooja Menon", "Karan Malhotra",
}

func main() {
	perStudent := flag.Int("subjects-per-student", 2, "Subjects each seeded student enrolls in")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := database.OpenStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer store.Close()

	enrollmentService := service.NewEnrollmentService(store.Tx, store.Students, store.Subjects, store.Exams, store.Enrollments, nil, log)
	studentService := service.NewStudentService(store.Students, store.Subjects, store.Exams, enrollmentService)
	subjectService := service.NewSubjectService(store.Tx, store.Subjects, store.Exams, store.Enrollments, log)
	examService := service.NewExamService(store.Tx, store.Exams, store.Subjects, store.Enrollments, enrollmentService, log)

	subjectIDs := make([]int64, 0, len(subjectNames))
	examIDs := make(map[int64]int64, len(subjectNames))
	for _, name := range subjectNames {
		sub, err := subjectService.Create(ctx, name)
		if err != nil {
			log.Fatal().Err(err).Str("subject", name).Msg("Failed to create subject")
		}
		exam, err := examService.Create(ctx, sub.ID)
		if err != nil {
			log.Fatal().Err(err).Str("subject", name).Msg("Failed to create exam")
		}
		subjectIDs = append(subjectIDs, sub.ID)
		examIDs[sub.ID] = exam.ID
	}
	log.Info().Int("subjects", len(subjectIDs)).Msg("Seeded subjects and exams")

	enrollments := 0
	for i, name := range studentNames {
		student, err := studentService.Create(ctx, name)
		if err != nil {
			log.Fatal().Err(err).Str("student", name).Msg("Failed to create student")
		}

		for j := 0; j < *perStudent && j < len(subjectIDs); j++ {
			subjectID := subjectIDs[(i+j)%len(subjectIDs)]
			if err := enrollmentService.EnrollInSubject(ctx, student.ID, subjectID); err != nil {
				if errors.Is(err, service.ErrEnrollmentConflict) {
					continue
				}
				log.Fatal().Err(err).Int64("student_id", student.ID).Msg("Failed to enroll in subject")
			}
			// Every other student also registers for the first subject's exam.
			if j == 0 && i%2 == 0 {
				if err := enrollmentService.EnrollInExam(ctx, student.ID, examIDs[subjectID]); err != nil {
					log.Fatal().Err(err).Int64("student_id", student.ID).Msg("Failed to register for exam")
				}
			}
			enrollments++
		}
	}

	log.Info().
		Int("students", len(studentNames)).
		Int("enrollments", enrollments).
		Msg("Seeding completed")
}
