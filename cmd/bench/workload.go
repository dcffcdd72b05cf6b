package main

import "math/rand"

// WorkloadType names a mixed read/write/range distribution, carried over
// from the teacher's benchmark driver.
type WorkloadType string

const (
	OLTP      WorkloadType = "OLTP (90/10)"
	OLAP      WorkloadType = "OLAP (10/90)"
	Reporting WorkloadType = "Reporting (Range)"
)

// ExecuteWorkload runs ops operations against e in the mix described by
// wType. Keys are drawn from [0, ops) so both reads and writes land on
// already-inserted data with reasonable probability.
func ExecuteWorkload(e Engine, wType WorkloadType, ops int) error {
	for i := 0; i < ops; i++ {
		choice := rand.Intn(100)
		key := int32(rand.Intn(ops))

		switch wType {
		case OLTP:
			if choice < 90 {
				if _, _, err := e.Get(key); err != nil {
					return err
				}
			} else if err := e.Insert(key, []byte("x")); err != nil {
				return err
			}
		case OLAP:
			if choice < 10 {
				if _, _, err := e.Get(key); err != nil {
					return err
				}
			} else if err := e.Insert(key, []byte("x")); err != nil {
				return err
			}
		case Reporting:
			if _, err := e.Range(key, key+100); err != nil {
				return err
			}
		}
	}
	return nil
}
