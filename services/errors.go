package services

import "errors"

// Общие ошибки бизнес-правил, маппятся на HTTP-статусы в handlers.
var (
	// Ошибки валидации
	ErrTournamentNameRequired = errors.New("tournament name is required")
	ErrAliasRequired          = errors.New("alias is required")
	ErrMaxParticipantsInvalid = errors.New("max participants must be an even number of at least 2")
	ErrScoresEqual            = errors.New("match scores must not be equal")
	ErrWinnerRequired         = errors.New("winner is required when a bot is involved")
	ErrWinnerNotInMatch       = errors.New("reported winner is not a player of this match")

	// Конфликты состояния
	ErrAlreadyJoined            = errors.New("user already participates in this tournament")
	ErrRegistrationClosed       = errors.New("tournament registration is closed")
	ErrAliasTaken               = errors.New("alias is already taken in this tournament")
	ErrTournamentAlreadyStarted = errors.New("tournament has already started")
	ErrTournamentCompleted      = errors.New("tournament is already completed")
	ErrTournamentNotActive      = errors.New("tournament is not active")
	ErrMatchAlreadyCompleted    = errors.New("match is already completed")
	ErrInsufficientParticipants = errors.New("at least two participants are required to start")

	// Доступ
	ErrOnlyCreatorCanStart = errors.New("only the tournament creator can start it")
	ErrNotAParticipant     = errors.New("user is not a participant")
	ErrByeMatchNotPlayable = errors.New("bye match cannot be played")

	// Внутренний guard рекурсивного продвижения раундов
	ErrRoundNotAdvancing = errors.New("round advancement made no progress")
)
