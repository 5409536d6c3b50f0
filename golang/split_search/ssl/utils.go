package ssl

import "log"

//HandleError panics on an error that the caller can't recover from.
func HandleError(err error) {
	if err != nil {
		log.Panic(err)
	}
}
