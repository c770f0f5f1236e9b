package kernel

import (
	"golang.org/x/sys/unix"

	"ipcqueue/internal/ipcerr"
)

const (
	opMqOpen    = "mq_open"
	opMqClose   = "mq_close"
	opMqUnlink  = "mq_unlink"
	opMqSend    = "mq_timedsend"
	opMqReceive = "mq_timedreceive"
	opMqAttr    = "mq_getattr"

	opMsgGet     = "msgget"
	opMsgSend    = "msgsnd"
	opMsgReceive = "msgrcv"
	opMsgStat    = "msgctl(IPC_STAT)"
	opMsgSet     = "msgctl(IPC_SET)"
	opMsgRemove  = "msgctl(IPC_RMID)"
	opMsgClose   = "msgclose"
)

var posixTransfer = ipcerr.Table{
	unix.EBADF:     ipcerr.InvalidDescriptor,
	unix.EINTR:     ipcerr.Interrupted,
	unix.EINVAL:    ipcerr.InvalidValue,
	unix.EMSGSIZE:  ipcerr.MessageTooLarge,
	unix.ETIMEDOUT: ipcerr.Timeout,
}

var posixTables = map[string]ipcerr.Table{
	opMqOpen: {
		unix.EACCES:       ipcerr.NoPermissions,
		unix.EINVAL:       ipcerr.InvalidValue,
		unix.ENAMETOOLONG: ipcerr.InvalidValue,
		unix.ENOENT:       ipcerr.InvalidValue,
		unix.EMFILE:       ipcerr.NoSystemResources,
		unix.ENFILE:       ipcerr.NoSystemResources,
		unix.ENOMEM:       ipcerr.NoSystemResources,
		unix.ENOSPC:       ipcerr.NoSystemResources,
	},
	opMqClose: {
		unix.EBADF: ipcerr.InvalidDescriptor,
	},
	opMqUnlink: {
		unix.EACCES:       ipcerr.NoPermissions,
		unix.EPERM:        ipcerr.NoPermissions,
		unix.EINVAL:       ipcerr.InvalidValue,
		unix.ENAMETOOLONG: ipcerr.InvalidValue,
		unix.ENOENT:       ipcerr.DoesNotExist,
	},
	opMqSend:    posixTransfer,
	opMqReceive: posixTransfer,
	opMqAttr: {
		unix.EBADF: ipcerr.InvalidDescriptor,
	},
}

var sysvTransfer = ipcerr.Table{
	unix.EACCES: ipcerr.NoPermissions,
	unix.EBADF:  ipcerr.InvalidDescriptor,
	unix.EFAULT: ipcerr.InvalidValue,
	unix.EINVAL: ipcerr.InvalidValue,
	unix.EIDRM:  ipcerr.InvalidDescriptor,
	unix.EINTR:  ipcerr.Interrupted,
}

var sysvTables = map[string]ipcerr.Table{
	opMsgGet: {
		unix.EACCES: ipcerr.NoPermissions,
		unix.EINVAL: ipcerr.InvalidValue,
		unix.ENOENT: ipcerr.DoesNotExist,
		unix.ENOMEM: ipcerr.NoSystemResources,
		unix.ENOSPC: ipcerr.NoSystemResources,
	},
	opMsgSend: ipcerr.Merge(sysvTransfer, ipcerr.Table{
		unix.ENOMEM: ipcerr.NoSystemResources,
	}),
	opMsgReceive: ipcerr.Merge(sysvTransfer, ipcerr.Table{
		unix.E2BIG: ipcerr.MessageTooLarge,
	}),
	opMsgStat: {
		unix.EACCES: ipcerr.NoPermissions,
		unix.EBADF:  ipcerr.InvalidDescriptor,
		unix.EIDRM:  ipcerr.InvalidDescriptor,
		unix.EINVAL: ipcerr.InvalidDescriptor,
	},
	opMsgSet: {
		unix.EACCES: ipcerr.NoPermissions,
		unix.EPERM:  ipcerr.NoPermissions,
		unix.EBADF:  ipcerr.InvalidDescriptor,
		unix.EIDRM:  ipcerr.InvalidDescriptor,
		unix.EINVAL: ipcerr.InvalidDescriptor,
	},
	opMsgRemove: {
		unix.EPERM:  ipcerr.NoPermissions,
		unix.EBADF:  ipcerr.InvalidDescriptor,
		unix.EIDRM:  ipcerr.DoesNotExist,
		unix.EINVAL: ipcerr.DoesNotExist,
	},
	opMsgClose: {
		unix.EBADF: ipcerr.InvalidDescriptor,
	},
}
