package globals

var WebReloadChan = make(chan bool)
var MetricsReloadChan = make(chan bool)
var StorageReloadChan = make(chan bool)
