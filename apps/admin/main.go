package main

import (
	"log"
	"os"

	"github.com/trezcool/daftari/core"
	"github.com/trezcool/daftari/core/student"
	exportsvc "github.com/trezcool/daftari/services/export"
	localdb "github.com/trezcool/daftari/storage/local"
	"github.com/trezcool/daftari/storage/records"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up storage
	local, err := localdb.Open(conf)
	errAndDie(err)

	userStore, err := records.NewUserStore(localdb.NewUserAdapter(local))
	errAndDie(err)
	studentStore, err := records.NewStudentStore(localdb.NewStudentAdapter(local))
	errAndDie(err)

	studSvc := student.NewService(studentStore)

	// start CLI
	cli := commandLine{
		usrRepo: userStore,
		expSvc:  exportsvc.NewService(studSvc),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
