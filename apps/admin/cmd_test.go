package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/trezcool/daftari/core"
	"github.com/trezcool/daftari/core/student"
	"github.com/trezcool/daftari/core/user"
	exportsvc "github.com/trezcool/daftari/services/export"
	localdb "github.com/trezcool/daftari/storage/local"
	"github.com/trezcool/daftari/storage/records"
	testutil "github.com/trezcool/daftari/tests"
)

var (
	usrRepo  user.Repository
	studRepo student.Repository
)

func setup(t *testing.T) *commandLine {
	db, err := localdb.Open(&core.Config{Storage: core.StorageConfig{Dir: t.TempDir()}})
	if err != nil {
		t.Fatalf("localdb.Open() failed: %v", err)
	}
	userStore, err := records.NewUserStore(localdb.NewUserAdapter(db))
	if err != nil {
		t.Fatalf("records.NewUserStore() failed: %v", err)
	}
	studentStore, err := records.NewStudentStore(localdb.NewStudentAdapter(db))
	if err != nil {
		t.Fatalf("records.NewStudentStore() failed: %v", err)
	}
	usrRepo = userStore
	studRepo = studentStore

	return &commandLine{
		usrRepo: userStore,
		expSvc:  exportsvc.NewService(student.NewService(studentStore)),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"adduser", "-username", "awe123"}, wantErr: errHelp},
		{name: "create", args: []string{"adduser", "-name", "Awe", "-username", "awe123"}, extra: extra{pwd: "lol"}},
		{name: "create admin", args: []string{"adduser", "-name", "Boss", "-email", "boss@test.cd", "-admin"}, extra: extra{pwd: "lol"}},
		{name: "update existing", args: []string{"adduser", "-username", "awe123", "-admin"}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	usr, err := usrRepo.GetUserByUsername("awe123")
	if err != nil {
		t.Fatalf("GetUserByUsername() failed: %v", err)
	}
	if !usr.IsAdmin() || !usr.IsActive {
		t.Errorf("failed! unexpected user: %+v", usr)
	}
	boss, err := usrRepo.GetUserByEmail("boss@test.cd")
	if err != nil {
		t.Fatalf("GetUserByEmail() failed: %v", err)
	}
	if !boss.IsAdmin() {
		t.Errorf("failed! unexpected user: %+v", boss)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "awe123", "awe@test.cd", "mdr", nil, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUserByID(usr.ID)
				if err != nil {
					t.Fatalf("GetUserByID() failed: %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_importExportStudents(t *testing.T) {
	cli := setup(t)

	dob := time.Date(2012, time.March, 4, 0, 0, 0, 0, time.UTC)
	testutil.CreateStudent(t, studRepo, "Asha", "Mwamba", "12", "ADM001", "5", "A", dob)
	testutil.CreateStudent(t, studRepo, "Ben", "Ilunga", "7", "ADM002", "5", "B", dob)

	dir := t.TempDir()
	file := filepath.Join(dir, "students.json")

	tests := []cliTest{
		{name: "export: no file", args: []string{"exportstudents"}, wantErr: errHelp},
		{name: "import: no file", args: []string{"importstudents"}, wantErr: errHelp},
		{name: "import: missing file", args: []string{"importstudents", "-file", filepath.Join(dir, "nope.json")}, wantErrStr: "no such file or directory"},
		{name: "export", args: []string{"exportstudents", "-file", file}},
		{name: "import", args: []string{"importstudents", "-file", file}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if tt.wantErrStr != "" {
				if !os.IsNotExist(err) {
					t.Errorf("cli.run() error = %v, want a missing file error", err)
				}
				return
			}
			if err != nil {
				t.Errorf("cli.run() unexpected error = %v", err)
			}
		})
	}

	// the roster survived the roundtrip
	studs, err := studRepo.QueryAllStudents()
	if err != nil {
		t.Fatalf("QueryAllStudents() failed: %v", err)
	}
	if len(studs) != 2 {
		t.Fatalf("QueryAllStudents() returned %d students, want 2", len(studs))
	}
	if studs[0].FirstName != "Asha" || studs[1].FirstName != "Ben" {
		t.Errorf("failed! unexpected roster: %+v", studs)
	}
}
