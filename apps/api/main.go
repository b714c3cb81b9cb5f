package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/daftari/apps/api/echo"
	"github.com/trezcool/daftari/core"
	"github.com/trezcool/daftari/core/attendance"
	"github.com/trezcool/daftari/core/student"
	"github.com/trezcool/daftari/core/user"
	emailsvc "github.com/trezcool/daftari/services/email"
	exportsvc "github.com/trezcool/daftari/services/export"
	logsvc "github.com/trezcool/daftari/services/logger"
	"github.com/trezcool/daftari/storage"
	"github.com/trezcool/daftari/storage/database"
	localdb "github.com/trezcool/daftari/storage/local"
	"github.com/trezcool/daftari/storage/records"
	remotedb "github.com/trezcool/daftari/storage/remote"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	storeLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "STORE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	storeLogger.Enable(!conf.Debug)

	// set up storage
	studentAdapter, entryAdapter, userAdapter, err := setUpStorage(conf, storeLogger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}

	studentStore, err := records.NewStudentStore(studentAdapter)
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading students: %v", err), err)
	}
	entryStore, err := records.NewEntryStore(entryAdapter)
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading attendance: %v", err), err)
	}
	userStore, err := records.NewUserStore(userAdapter)
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading users: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(userStore, mailSvc, conf)
	studSvc := student.NewService(studentStore)
	attSvc := attendance.NewService(entryStore)
	expSvc := exportsvc.NewService(studSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	student.InitValidators(validate, translator)
	attendance.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	user.LoadCommonPasswords(logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			UserSvc:       usrSvc,
			StudentSvc:    studSvc,
			AttendanceSvc: attSvc,
			ExportSvc:     expSvc,
			Validate:      validate,
			Translator:    translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpStorage wires the snapshot adapters for the configured backend.
func setUpStorage(conf *core.Config, logger core.Logger) (storage.StudentAdapter, storage.EntryAdapter, storage.UserAdapter, error) {
	local, err := localdb.Open(conf)
	if err != nil {
		return nil, nil, nil, err
	}
	entryAdapter := localdb.NewEntryAdapter(local)
	userAdapter := localdb.NewUserAdapter(local)

	switch conf.Storage.Backend {
	case "remote":
		// failover is already logged by the adapter itself
		studentAdapter := remotedb.NewStudentAdapter(conf, localdb.NewStudentAdapter(local), logger, nil)
		return studentAdapter, entryAdapter, userAdapter, nil
	case "database":
		db, err := database.Open(conf)
		if err != nil {
			return nil, nil, nil, err
		}
		return database.NewStudentAdapter(db), entryAdapter, userAdapter, nil
	default: // local
		return localdb.NewStudentAdapter(local), entryAdapter, userAdapter, nil
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
