package domain

import (
	"github.com/yungbote/neurotutor-backend/internal/domain/tutor"
	"github.com/yungbote/neurotutor-backend/internal/domain/user"
)

type User = user.User

type Session = tutor.Session
type Turn = tutor.Turn
type Source = tutor.Source
type Media = tutor.Media
type Quiz = tutor.Quiz
type QuizSubmission = tutor.QuizSubmission
type UserMetricsRollup = tutor.UserMetricsRollup
type GroupStats = tutor.GroupStats

type Role = tutor.Role
type Difficulty = tutor.Difficulty
type Subject = tutor.Subject

const (
	RoleHuman = tutor.RoleHuman
	RoleAI    = tutor.RoleAI

	DifficultyEasy   = tutor.DifficultyEasy
	DifficultyMedium = tutor.DifficultyMedium
	DifficultyHard   = tutor.DifficultyHard

	SubjectUnknown = tutor.SubjectUnknown

	DefaultGrade = user.DefaultGrade
	DefaultTopic = tutor.DefaultTopic
)
