package conn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	testCases := []struct {
		name string
		opt  Option
		want string
	}{
		{
			name: "defaults",
			opt:  Option{Database: "market"},
			want: "postgres://localhost:5432/market?sslmode=disable",
		},
		{
			name: "credentials and params",
			opt: Option{
				Host:     "db",
				Port:     6543,
				User:     "ore",
				Password: "p@ss",
				Database: "market",
				SSLMode:  "require",
				Params:   map[string]string{"application_name": "oresink", "": "skip"},
			},
			want: "postgres://ore:p%40ss@db:6543/market?application_name=oresink&sslmode=require",
		},
		{
			name: "conn string wins",
			opt:  Option{ConnString: "host=db dbname=market", Database: "other"},
			want: "host=db dbname=market",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.opt.DSN()
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := Option{Port: 70000}.DSN()
	assert.Error(t, err)
}
