// Package containers starts the Docker backed dependencies used by
// integration tests.
//
// Containers are shared per package through TestMain:
//
//	var pg *containers.PostgresContainer
//
//	func TestMain(m *testing.M) {
//	    var err error
//	    pg, err = containers.NewPostgresContainer(context.Background(), nil)
//	    if err != nil {
//	        panic("failed to start postgres: " + err.Error())
//	    }
//	    code := m.Run()
//	    _ = pg.Terminate(context.Background())
//	    os.Exit(code)
//	}
//
// Files in this package carry the "integration" build tag:
//
//	go test -tags=integration ./...
package containers
