package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/parikshahq/pariksha/apps/api/echo"
	"github.com/parikshahq/pariksha/core"
	"github.com/parikshahq/pariksha/core/exam"
	"github.com/parikshahq/pariksha/core/institute"
	"github.com/parikshahq/pariksha/core/owner"
	"github.com/parikshahq/pariksha/core/student"
	"github.com/parikshahq/pariksha/core/typing"
	emailsvc "github.com/parikshahq/pariksha/services/email"
	logsvc "github.com/parikshahq/pariksha/services/logger"
	uploadsvc "github.com/parikshahq/pariksha/services/upload"
	"github.com/parikshahq/pariksha/storage/database"
	sqlxrepos "github.com/parikshahq/pariksha/storage/database/sqlx"
)

func main() {
	conf := core.Conf

	// set up logger
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() { _ = db.Close() }()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	ownRepo := sqlxrepos.NewOwnerRepository(db)
	instRepo := sqlxrepos.NewInstituteRepository(db)
	stuRepo := sqlxrepos.NewStudentRepository(db)
	examRepo := sqlxrepos.NewExamRepository(db)
	typingRepo := sqlxrepos.NewTypingRepository(db)

	ownSvc := owner.NewService(conf, ownRepo)
	instSvc := institute.NewService(instRepo, mailSvc)
	stuSvc := student.NewService(stuRepo, mailSvc)
	examSvc := exam.NewService(examRepo, stuRepo)
	typingSvc := typing.NewService(typingRepo, examRepo)

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// start API server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	app := echoapi.NewServer(&echoapi.Options{
		Address:        conf.Server.Address(),
		Logger:         logger,
		SignalShutdown: func() { shutdown <- syscall.SIGTERM },
		OwnerSvc:       ownSvc,
		InstituteSvc:   instSvc,
		StudentSvc:     stuSvc,
		ExamSvc:        examSvc,
		TypingSvc:      typingSvc,
		FileStore:      uploadsvc.NewLocalFileStore(),
	})

	go app.Start()

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	if err = app.Stop(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
