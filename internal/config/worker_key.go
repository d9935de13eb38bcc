package config

type WorkerKeyStruct struct {
	PersistIncidentsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistIncidentsQueue: "persist_incidents_queue",
}
