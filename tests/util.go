package testutil

import (
	"testing"
	"time"

	"github.com/trezcool/daftari/core/attendance"
	"github.com/trezcool/daftari/core/student"
	"github.com/trezcool/daftari/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateStudent(
	t *testing.T,
	repo student.Repository,
	firstName, lastName, rollNo, admissionNo, classLevel, section string,
	dob time.Time,
	createdAt ...time.Time,
) student.Student {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	stud := student.Student{
		FirstName:   firstName,
		LastName:    lastName,
		RollNo:      rollNo,
		AdmissionNo: admissionNo,
		ClassLevel:  classLevel,
		Section:     section,
		DateOfBirth: dob,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	}
	stud, err := repo.CreateStudent(stud)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return stud
}

func CreateEntry(
	t *testing.T,
	repo attendance.Repository,
	studentID string,
	date time.Time,
	status, note string,
) attendance.Entry {
	tstamp := time.Now().UTC()
	entry := attendance.Entry{
		StudentID: studentID,
		Date:      attendance.DayOf(date),
		Status:    status,
		Note:      note,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	entry, err := repo.CreateEntry(entry)
	if err != nil {
		t.Fatalf("CreateEntry() failed: %v", err)
	}
	return entry
}
