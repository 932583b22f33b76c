// Shopd is the shop API service. It serves users, products and orders
// from a postgres database and optionally publishes entity change
// events to kafka.
package main

import (
	"net/http"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/sirupsen/logrus"

	"github.com/commercekit/shopapi/core/csql"
	"github.com/commercekit/shopapi/core/logger"
	"github.com/commercekit/shopapi/core/shop"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
)

// Service holds the configuration for this service
//
// use POSTGRES="host=localhost port=5432 user=postgres dbname=postgres sslmode=disable"
// and POSTGRES_PASSWORD="docker"
type Service struct {
	Postgres         string `env:"POSTGRES,required" description:"the connection string for the Postgres DB without password"`
	PostgresPassword string `env:"POSTGRES_PASSWORD,optional" description:"password to the Postgres DB"`
	Port             string `env:"PORT,default=3000" description:"the port to listen on"`
	KafkaBrokers     string `env:"KAFKA_BROKERS,optional" description:"comma separated kafka brokers for entity change events"`
	KafkaTopic       string `env:"KAFKA_TOPIC,default=shop_entity_events" description:"the kafka topic for entity change events"`
}

func main() {
	service := &Service{}
	if err := envdecode.Decode(service); err != nil {
		panic(err)
	}

	logger.InitLogger(logrus.InfoLevel)
	log := logger.Default()

	db := csql.OpenWithSchema(service.Postgres, service.PostgresPassword, "shop")
	defer db.Close()

	var notifier shop.Notifier
	if service.KafkaBrokers != "" {
		kafkaNotifier := shop.NewKafkaNotifier(strings.Split(service.KafkaBrokers, ","), service.KafkaTopic)
		defer kafkaNotifier.Close()
		notifier = kafkaNotifier
		log.Infoln("publishing entity change events to", service.KafkaTopic)
	}

	router := mux.NewRouter()
	shop.New(&shop.Builder{
		DB:       db,
		Router:   router,
		Notifier: notifier,
	})

	log.Infoln("listen on port :" + service.Port)
	if err := http.ListenAndServe(":"+service.Port, router); err != nil {
		log.Fatalln(err)
	}
}
