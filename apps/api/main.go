package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/edulearn/apps/api/echo"
	"github.com/trezcool/edulearn/core"
	"github.com/trezcool/edulearn/core/progress"
	"github.com/trezcool/edulearn/core/signup"
	"github.com/trezcool/edulearn/core/user"
	"github.com/trezcool/edulearn/core/video"
	logsvc "github.com/trezcool/edulearn/services/logger"
	"github.com/trezcool/edulearn/storage/database"
	sqlxrepos "github.com/trezcool/edulearn/storage/database/sqlx"
	"github.com/trezcool/edulearn/storage/files"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	var logger core.Logger
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	if core.Conf.Debug || core.Conf.TestMode {
		logger = core.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, core.Conf)
		logger.Enable(true)
	}

	db, err := setUpDB()
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("failed to close DB", err)
		}
	}()

	blobs, err := files.NewLocalStore(core.Conf.MediaRoot)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up media store: %v", err), err)
	}

	// set up services
	usrRepo := sqlxrepos.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, logger)
	signupSvc := signup.NewService(db, sqlxrepos.NewSignupRepository(db), usrRepo)
	videoSvc := video.NewService(sqlxrepos.NewVideoRepository(db), blobs, logger)
	progressSvc := progress.NewService(sqlxrepos.NewProgressRepository(db))

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("%s API initializing on %s", core.Conf.AppName, core.Conf.Server.Address()))
	defer logger.Info("Application stopped")

	server := echoapi.NewServer(echoapi.ServerDeps{
		Logger:      logger,
		UsrSvc:      usrSvc,
		SignupSvc:   signupSvc,
		VideoSvc:    videoSvc,
		ProgressSvc: progressSvc,
		Blobs:       blobs,
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), core.Conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB() (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(core.Conf); err != nil {
		return nil, err
	}

	db, err := database.Open(core.Conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}
