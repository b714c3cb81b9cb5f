package main

import (
	"fmt"
	"os"
)

func (cli *commandLine) importStudents(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	count, err := cli.expSvc.Import(f)
	if err != nil {
		return err
	}
	fmt.Printf("%d students imported\n", count)
	return nil
}

func (cli *commandLine) exportStudents(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := cli.expSvc.Export(f); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("students exported to %s\n", path)
	return nil
}
