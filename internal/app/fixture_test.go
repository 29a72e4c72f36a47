package service_test

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/okian/contestboard/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const sheetURL = "https://example.test/contest.csv"

const header = "STAFF NAME,COMPANY NAME,BRANCH,OS AS ON 30.06.2025," +
	"Domestic Trip contest target,Foreign trip contest Target," +
	"Domestic Trip fresh customer target,Foreign trip fresh customer target," +
	"Contest Total NET,FRESH CUSTOMER ACH JULY"

// contestCSV covers every ranking case:
//
//	domestic:      ANU 3.2 full, FAIZ 2.0 full, BINU 1.75 full, CHITRA 1.5 full
//	international: ANU 2.0 full, BINU 1.17, FAIZ 0.22, DEV 0.2, ELSA 0
var contestCSV = strings.Join([]string{
	header,
	`ANU,VANCHINAD FINANCE LTD,KOCHI,"12,00,000","50,00,000","80,00,000",2,3,"1,60,00,000",4`,
	`BINU,VANCHINAD FINANCE LTD,THRISSUR,,"40,00,000","60,00,000",1,2,"70,00,000",1`,
	`CHITRA,SML FINANCE LTD,KOLLAM,,"30,00,000",,1,,"45,00,000",2`,
	`DEV,SML FINANCE LTD,KOLLAM,,,"1,00,00,000",,5,"20,00,000",0`,
	`ELSA,KERALA GOLD LOAN SERVICES,ALUVA,,,"50,00,000",,2,0,0`,
	`FAIZ,KERALA GOLD LOAN SERVICES,ALUVA,,"10,00,000","90,00,000",,,"20,00,000",0`,
}, "\n")

// fakeFetcher serves text, or err when set, and counts calls.
type fakeFetcher struct {
	text  string
	err   error
	calls atomic.Int64
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}
